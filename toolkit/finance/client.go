// Package finance provides Yahoo Finance backed tools for market data.
package finance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Default Yahoo Finance endpoints.
const (
	DefaultChartURL   = "https://query1.finance.yahoo.com"
	DefaultSummaryURL = "https://query2.finance.yahoo.com"
	DefaultCookieURL  = "https://fc.yahoo.com"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// ClientOptions configures a Client.
type ClientOptions struct {
	ChartURL   string
	SummaryURL string
	CookieURL  string
	HTTPClient *http.Client
	// RequestsPerSecond throttles outgoing requests. Zero disables throttling.
	RequestsPerSecond float64
}

// Client is a small Yahoo Finance HTTP client. Summary endpoints need a
// session cookie plus crumb, fetched lazily and cached.
type Client struct {
	opts    ClientOptions
	http    *http.Client
	limiter *rate.Limiter

	mu    sync.Mutex
	crumb string
}

// NewClient creates a Client.
func NewClient(optFns ...func(o *ClientOptions)) *Client {
	opts := ClientOptions{
		ChartURL:          DefaultChartURL,
		SummaryURL:        DefaultSummaryURL,
		CookieURL:         DefaultCookieURL,
		RequestsPerSecond: 2,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	hc := opts.HTTPClient
	if hc == nil {
		jar, _ := cookiejar.New(nil)
		hc = &http.Client{Timeout: 20 * time.Second, Jar: jar}
	}

	c := &Client{opts: opts, http: hc}
	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return c
}

// Value is Yahoo's numeric field encoding.
type Value struct {
	Raw float64 `json:"raw"`
	Fmt string  `json:"fmt"`
}

// Quote is the chart endpoint's market snapshot.
type Quote struct {
	Symbol             string  `json:"symbol"`
	Currency           string  `json:"currency"`
	LongName           string  `json:"longName"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	PreviousClose      float64 `json:"chartPreviousClose"`
	FiftyTwoWeekHigh   float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow    float64 `json:"fiftyTwoWeekLow"`
}

// Summary holds the quoteSummary modules the tools use.
type Summary struct {
	AssetProfile struct {
		Address1            string `json:"address1"`
		City                string `json:"city"`
		State               string `json:"state"`
		Zip                 string `json:"zip"`
		Country             string `json:"country"`
		Website             string `json:"website"`
		Industry            string `json:"industry"`
		Sector              string `json:"sector"`
		LongBusinessSummary string `json:"longBusinessSummary"`
		FullTimeEmployees   int    `json:"fullTimeEmployees"`
	} `json:"assetProfile"`
	Price struct {
		LongName           string `json:"longName"`
		Currency           string `json:"currency"`
		RegularMarketPrice Value  `json:"regularMarketPrice"`
		MarketCap          Value  `json:"marketCap"`
	} `json:"price"`
	SummaryDetail struct {
		TrailingPE       Value `json:"trailingPE"`
		DividendYield    Value `json:"dividendYield"`
		Beta             Value `json:"beta"`
		FiftyTwoWeekHigh Value `json:"fiftyTwoWeekHigh"`
		FiftyTwoWeekLow  Value `json:"fiftyTwoWeekLow"`
		FiftyDayAverage  Value `json:"fiftyDayAverage"`
		TwoHundredDayAvg Value `json:"twoHundredDayAverage"`
	} `json:"summaryDetail"`
	DefaultKeyStatistics struct {
		TrailingEps Value `json:"trailingEps"`
		PriceToBook Value `json:"priceToBook"`
	} `json:"defaultKeyStatistics"`
	FinancialData struct {
		RecommendationKey       string `json:"recommendationKey"`
		NumberOfAnalystOpinions Value  `json:"numberOfAnalystOpinions"`
		TotalCash               Value  `json:"totalCash"`
		FreeCashflow            Value  `json:"freeCashflow"`
		OperatingCashflow       Value  `json:"operatingCashflow"`
		Ebitda                  Value  `json:"ebitda"`
		RevenueGrowth           Value  `json:"revenueGrowth"`
		GrossMargins            Value  `json:"grossMargins"`
		EbitdaMargins           Value  `json:"ebitdaMargins"`
	} `json:"financialData"`
	RecommendationTrend struct {
		Trend []Recommendation `json:"trend"`
	} `json:"recommendationTrend"`
}

// Recommendation is one analyst recommendation period.
type Recommendation struct {
	Period     string `json:"period"`
	StrongBuy  int    `json:"strongBuy"`
	Buy        int    `json:"buy"`
	Hold       int    `json:"hold"`
	Sell       int    `json:"sell"`
	StrongSell int    `json:"strongSell"`
}

// NewsItem is a headline from the search endpoint.
type NewsItem struct {
	Title       string `json:"title"`
	Publisher   string `json:"publisher"`
	Link        string `json:"link"`
	PublishedAt int64  `json:"providerPublishTime"`
}

// Quote fetches the latest market snapshot for symbol.
func (c *Client) Quote(ctx context.Context, symbol string) (Quote, error) {
	var body struct {
		Chart struct {
			Result []struct {
				Meta Quote `json:"meta"`
			} `json:"result"`
			Error *yahooError `json:"error"`
		} `json:"chart"`
	}

	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=1d", c.opts.ChartURL, url.PathEscape(symbol))
	if err := c.getJSON(ctx, u, &body); err != nil {
		return Quote{}, err
	}

	if body.Chart.Error != nil {
		return Quote{}, body.Chart.Error
	}

	if len(body.Chart.Result) == 0 {
		return Quote{}, fmt.Errorf("no quote for %s", symbol)
	}

	return body.Chart.Result[0].Meta, nil
}

// Summary fetches the profile, price, statistics and recommendation modules.
func (c *Client) Summary(ctx context.Context, symbol string) (Summary, error) {
	crumb, err := c.ensureCrumb(ctx)
	if err != nil {
		return Summary{}, err
	}

	q := url.Values{}
	q.Set("modules", "assetProfile,price,summaryDetail,defaultKeyStatistics,financialData,recommendationTrend")

	if crumb != "" {
		q.Set("crumb", crumb)
	}

	var body struct {
		QuoteSummary struct {
			Result []Summary   `json:"result"`
			Error  *yahooError `json:"error"`
		} `json:"quoteSummary"`
	}

	u := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?%s", c.opts.SummaryURL, url.PathEscape(symbol), q.Encode())
	if err := c.getJSON(ctx, u, &body); err != nil {
		return Summary{}, err
	}

	if body.QuoteSummary.Error != nil {
		return Summary{}, body.QuoteSummary.Error
	}

	if len(body.QuoteSummary.Result) == 0 {
		return Summary{}, fmt.Errorf("no summary for %s", symbol)
	}

	return body.QuoteSummary.Result[0], nil
}

// News returns up to count recent headlines for symbol.
func (c *Client) News(ctx context.Context, symbol string, count int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("quotesCount", "0")
	q.Set("newsCount", fmt.Sprint(count))

	var body struct {
		News []NewsItem `json:"news"`
	}

	if err := c.getJSON(ctx, c.opts.ChartURL+"/v1/finance/search?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	if len(body.News) > count {
		body.News = body.News[:count]
	}

	return body.News, nil
}

type yahooError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *yahooError) Error() string {
	return fmt.Sprintf("yahoo finance: %s: %s", e.Code, e.Description)
}

func (c *Client) ensureCrumb(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.crumb != "" || c.opts.CookieURL == "" {
		return c.crumb, nil
	}

	// The cookie endpoint answers 404 but still sets the session cookie.
	if resp, err := c.do(ctx, c.opts.CookieURL); err == nil {
		_ = resp.Body.Close()
	}

	resp, err := c.do(ctx, c.opts.SummaryURL+"/v1/test/getcrumb")
	if err != nil {
		return "", fmt.Errorf("fetch crumb: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if err != nil {
		return "", fmt.Errorf("read crumb: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch crumb: unexpected status %s", resp.Status)
	}

	c.crumb = strings.TrimSpace(string(raw))

	return c.crumb, nil
}

func (c *Client) do(ctx context.Context, u string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, u string, out any) error {
	resp, err := c.do(ctx, u)
	if err != nil {
		return fmt.Errorf("yahoo finance request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errors.New("yahoo finance: symbol not found")
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo finance: unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode yahoo finance response: %w", err)
	}

	return nil
}
