package finance

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

func newYahoo(t *testing.T) (*Client, *int) {
	t.Helper()

	summaryCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A3", Value: "session"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v1/test/getcrumb", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("crumb-123"))
	})
	mux.HandleFunc("/v8/finance/chart/AAPL", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"AAPL","currency":"USD","regularMarketPrice":189.5}}],"error":null}}`))
	})
	mux.HandleFunc("/v8/finance/chart/NOPE", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/v10/finance/quoteSummary/AAPL", func(w http.ResponseWriter, r *http.Request) {
		summaryCalls++

		if r.URL.Query().Get("crumb") != "crumb-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		_, _ = w.Write([]byte(`{"quoteSummary":{"result":[{
			"assetProfile":{"sector":"Technology","industry":"Consumer Electronics","fullTimeEmployees":161000},
			"price":{"longName":"Apple Inc.","currency":"USD","marketCap":{"raw":2950000000000,"fmt":"2.95T"}},
			"summaryDetail":{"trailingPE":{"raw":29.4}},
			"recommendationTrend":{"trend":[{"period":"0m","strongBuy":11,"buy":21,"hold":6,"sell":0,"strongSell":0}]}
		}],"error":null}}`))
	})
	mux.HandleFunc("/v1/finance/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"news":[
			{"title":"Apple ships","publisher":"Wire","link":"https://n/1","providerPublishTime":1700000000},
			{"title":"Apple earnings","publisher":"Wire","link":"https://n/2","providerPublishTime":1700000100}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient(func(o *ClientOptions) {
		o.ChartURL = srv.URL
		o.SummaryURL = srv.URL
		o.CookieURL = srv.URL + "/cookie"
		o.RequestsPerSecond = 0
	})

	return c, &summaryCalls
}

func call(t *testing.T, tools []tool.Tool, name string, args map[string]any) string {
	t.Helper()

	tl := tool.Find(tools, name)
	require.NotNil(t, tl, name)

	rc := core.NewRunContext(t.Context(), "s", "r", core.AgentInfo{Name: "finance"}, core.Content{}, nil, nil, core.RunContextOptions{})

	out, err := tl.Call(core.NewToolContext(rc, "c1"), args)
	require.NoError(t, err)

	s, ok := out.(string)
	require.True(t, ok)

	return s
}

func TestNewTools_DefaultsToStockPrice(t *testing.T) {
	tools := NewTools()
	require.Len(t, tools, 1)
	assert.Equal(t, StockPriceTool, tools[0].Name())

	assert.Len(t, NewTools(All), 5)
}

func TestStockPrice(t *testing.T) {
	c, _ := newYahoo(t)
	tools := NewTools(func(o *Options) { o.Client = c })

	assert.Equal(t, "189.5000", call(t, tools, StockPriceTool, map[string]any{"symbol": "AAPL"}))
	assert.Equal(t, "Could not fetch current price for NOPE", call(t, tools, StockPriceTool, map[string]any{"symbol": "NOPE"}))
}

func TestSummaryTools(t *testing.T) {
	c, calls := newYahoo(t)
	tools := NewTools(All, func(o *Options) { o.Client = c })

	info := call(t, tools, CompanyInfoTool, map[string]any{"symbol": "AAPL"})
	assert.Contains(t, info, `"Name": "Apple Inc."`)
	assert.Contains(t, info, `"Market Cap": "2,950,000,000,000.00 USD"`)
	assert.Contains(t, info, `"Employees": "161,000"`)

	fund := call(t, tools, StockFundamentalsTool, map[string]any{"symbol": "AAPL"})
	assert.Contains(t, fund, `"pe_ratio": 29.4`)

	recs := call(t, tools, AnalystRecommendationsTool, map[string]any{"symbol": "AAPL"})
	assert.Contains(t, recs, `"strongBuy": 11`)

	assert.Equal(t, 3, *calls)
}

func TestCompanyNews(t *testing.T) {
	c, _ := newYahoo(t)
	tools := NewTools(func(o *Options) {
		o.CompanyNews = true
		o.Client = c
	})

	out := call(t, tools, CompanyNewsTool, map[string]any{"symbol": "AAPL", "num_stories": 1})
	assert.Contains(t, out, "Apple ships")
	assert.NotContains(t, out, "Apple earnings")
	assert.Contains(t, out, "2023-11-14T22:13:20Z")
}
