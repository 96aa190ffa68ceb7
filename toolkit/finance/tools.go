package finance

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// Tool names.
const (
	StockPriceTool             = "get_current_stock_price"
	CompanyInfoTool            = "get_company_info"
	StockFundamentalsTool      = "get_stock_fundamentals"
	AnalystRecommendationsTool = "get_analyst_recommendations"
	CompanyNewsTool            = "get_company_news"
)

// Options selects the enabled tools. With every flag unset only the stock
// price tool is enabled.
type Options struct {
	StockPrice             bool
	CompanyInfo            bool
	StockFundamentals      bool
	AnalystRecommendations bool
	CompanyNews            bool
	// NewsCount bounds get_company_news results.
	NewsCount int
	Client    *Client
}

// All enables every tool.
func All(o *Options) {
	o.StockPrice = true
	o.CompanyInfo = true
	o.StockFundamentals = true
	o.AnalystRecommendations = true
	o.CompanyNews = true
}

type symbolArgs struct {
	Symbol string `json:"symbol" description:"The stock ticker symbol, for example AAPL"`
}

type newsArgs struct {
	Symbol     string `json:"symbol" description:"The stock ticker symbol, for example AAPL"`
	NumStories int    `json:"num_stories,omitempty" description:"Number of stories to return"`
}

var printer = message.NewPrinter(language.English)

// NewTools returns the enabled Yahoo Finance tools. Failures are reported
// to the model as text rather than tool errors.
func NewTools(optFns ...func(o *Options)) []tool.Tool {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if !opts.StockPrice && !opts.CompanyInfo && !opts.StockFundamentals && !opts.AnalystRecommendations && !opts.CompanyNews {
		opts.StockPrice = true
	}

	if opts.NewsCount <= 0 {
		opts.NewsCount = 3
	}

	c := opts.Client
	if c == nil {
		c = NewClient()
	}

	var tools []tool.Tool

	if opts.StockPrice {
		tools = append(tools, tool.NewTypedTool(StockPriceTool,
			"Use this function to get the current stock price for a given symbol.",
			func(tc *core.ToolContext, in symbolArgs) (any, error) {
				q, err := c.Quote(tc.Context(), in.Symbol)
				if err != nil || q.RegularMarketPrice == 0 {
					return fmt.Sprintf("Could not fetch current price for %s", in.Symbol), nil
				}

				return fmt.Sprintf("%.4f", q.RegularMarketPrice), nil
			}))
	}

	if opts.CompanyInfo {
		tools = append(tools, tool.NewTypedTool(CompanyInfoTool,
			"Use this function to get company information and overview for a given stock symbol.",
			func(tc *core.ToolContext, in symbolArgs) (any, error) {
				s, err := c.Summary(tc.Context(), in.Symbol)
				if err != nil {
					return fmt.Sprintf("Error fetching company profile for %s: %v", in.Symbol, err), nil
				}

				return toJSON(companyInfo(in.Symbol, s)), nil
			}))
	}

	if opts.StockFundamentals {
		tools = append(tools, tool.NewTypedTool(StockFundamentalsTool,
			"Use this function to get fundamental data for a given stock symbol.",
			func(tc *core.ToolContext, in symbolArgs) (any, error) {
				s, err := c.Summary(tc.Context(), in.Symbol)
				if err != nil {
					return fmt.Sprintf("Error getting fundamentals for %s: %v", in.Symbol, err), nil
				}

				return toJSON(fundamentals(in.Symbol, s)), nil
			}))
	}

	if opts.AnalystRecommendations {
		tools = append(tools, tool.NewTypedTool(AnalystRecommendationsTool,
			"Use this function to get analyst recommendations for a given stock symbol.",
			func(tc *core.ToolContext, in symbolArgs) (any, error) {
				s, err := c.Summary(tc.Context(), in.Symbol)
				if err != nil {
					return fmt.Sprintf("Error fetching analyst recommendations for %s: %v", in.Symbol, err), nil
				}

				return toJSON(s.RecommendationTrend.Trend), nil
			}))
	}

	if opts.CompanyNews {
		tools = append(tools, tool.NewTypedTool(CompanyNewsTool,
			"Use this function to get company news and press releases for a given stock symbol.",
			func(tc *core.ToolContext, in newsArgs) (any, error) {
				n := in.NumStories
				if n <= 0 {
					n = opts.NewsCount
				}

				news, err := c.News(tc.Context(), in.Symbol, n)
				if err != nil {
					return fmt.Sprintf("Error fetching company news for %s: %v", in.Symbol, err), nil
				}

				out := make([]map[string]string, 0, len(news))
				for _, item := range news {
					out = append(out, map[string]string{
						"title":     item.Title,
						"publisher": item.Publisher,
						"link":      item.Link,
						"published": time.Unix(item.PublishedAt, 0).UTC().Format(time.RFC3339),
					})
				}

				return toJSON(out), nil
			}))
	}

	return tools
}

func companyInfo(symbol string, s Summary) map[string]any {
	ap := s.AssetProfile
	cur := s.Price.Currency

	return map[string]any{
		"Name":                       s.Price.LongName,
		"Symbol":                     symbol,
		"Current Stock Price":        money(s.Price.RegularMarketPrice.Raw, cur),
		"Market Cap":                 money(s.Price.MarketCap.Raw, cur),
		"Sector":                     ap.Sector,
		"Industry":                   ap.Industry,
		"Address":                    ap.Address1,
		"City":                       ap.City,
		"State":                      ap.State,
		"Zip":                        ap.Zip,
		"Country":                    ap.Country,
		"EPS":                        s.DefaultKeyStatistics.TrailingEps.Raw,
		"P/E Ratio":                  s.SummaryDetail.TrailingPE.Raw,
		"52 Week Low":                s.SummaryDetail.FiftyTwoWeekLow.Raw,
		"52 Week High":               s.SummaryDetail.FiftyTwoWeekHigh.Raw,
		"50 Day Average":             s.SummaryDetail.FiftyDayAverage.Raw,
		"200 Day Average":            s.SummaryDetail.TwoHundredDayAvg.Raw,
		"Website":                    ap.Website,
		"Summary":                    ap.LongBusinessSummary,
		"Analyst Recommendation":     s.FinancialData.RecommendationKey,
		"Number Of Analyst Opinions": int(s.FinancialData.NumberOfAnalystOpinions.Raw),
		"Employees":                  printer.Sprintf("%d", ap.FullTimeEmployees),
		"Total Cash":                 money(s.FinancialData.TotalCash.Raw, cur),
		"Free Cash flow":             money(s.FinancialData.FreeCashflow.Raw, cur),
		"Operating Cash flow":        money(s.FinancialData.OperatingCashflow.Raw, cur),
		"EBITDA":                     money(s.FinancialData.Ebitda.Raw, cur),
		"Revenue Growth":             s.FinancialData.RevenueGrowth.Raw,
		"Gross Margins":              s.FinancialData.GrossMargins.Raw,
		"Ebitda Margins":             s.FinancialData.EbitdaMargins.Raw,
	}
}

func fundamentals(symbol string, s Summary) map[string]any {
	return map[string]any{
		"symbol":         symbol,
		"company_name":   s.Price.LongName,
		"sector":         s.AssetProfile.Sector,
		"industry":       s.AssetProfile.Industry,
		"market_cap":     money(s.Price.MarketCap.Raw, s.Price.Currency),
		"pe_ratio":       s.SummaryDetail.TrailingPE.Raw,
		"pb_ratio":       s.DefaultKeyStatistics.PriceToBook.Raw,
		"dividend_yield": s.SummaryDetail.DividendYield.Raw,
		"eps":            s.DefaultKeyStatistics.TrailingEps.Raw,
		"beta":           s.SummaryDetail.Beta.Raw,
		"52_week_high":   s.SummaryDetail.FiftyTwoWeekHigh.Raw,
		"52_week_low":    s.SummaryDetail.FiftyTwoWeekLow.Raw,
	}
}

func money(v float64, currency string) string {
	if currency == "" {
		currency = "USD"
	}

	return printer.Sprintf("%.2f %s", v, currency)
}

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	return string(data)
}
