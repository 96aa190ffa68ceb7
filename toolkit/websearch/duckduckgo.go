package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// DefaultDuckDuckGoURL is the HTML search endpoint.
const DefaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGoSearchTool is the DuckDuckGo tool name.
const DuckDuckGoSearchTool = "duckduckgo_search"

// Result is one web search hit.
type Result struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// DuckDuckGo scrapes DuckDuckGo's JavaScript free result page.
type DuckDuckGo struct {
	URL        string
	MaxResults int
	HTTPClient *http.Client
}

// NewDuckDuckGo creates a DuckDuckGo client returning 5 results by default.
func NewDuckDuckGo() *DuckDuckGo {
	return &DuckDuckGo{
		URL:        DefaultDuckDuckGoURL,
		MaxResults: 5,
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// Search returns up to max results for query.
func (d *DuckDuckGo) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if max <= 0 {
		max = d.MaxResults
	}

	form := url.Values{"q": {query}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build duckduckgo request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; agentlab)")

	hc := d.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: unexpected status %s", resp.Status)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse duckduckgo results: %w", err)
	}

	return parseResults(root, max), nil
}

// parseResults walks result blocks: a.result__a holds the link and title,
// .result__snippet the body.
func parseResults(root *html.Node, max int) []Result {
	var (
		out  []Result
		walk func(n *html.Node)
	)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "result__a") {
			if max <= 0 || len(out) < max {
				out = append(out, Result{Title: text(n), Href: resolveHref(attr(n, "href"))})
			}

			return
		}

		if n.Type == html.ElementNode && hasClass(n, "result__snippet") && len(out) > 0 && out[len(out)-1].Body == "" {
			out[len(out)-1].Body = text(n)
			return
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(root)

	return out
}

// resolveHref unwraps DuckDuckGo redirect links (//duckduckgo.com/l/?uddg=...).
func resolveHref(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}

	if target := u.Query().Get("uddg"); target != "" {
		return target
	}

	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}

	return href
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}

	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}

	return false
}

func text(n *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)

	return strings.Join(strings.Fields(b.String()), " ")
}

type ddgArgs struct {
	Query      string `json:"query" description:"The query to search for"`
	MaxResults int    `json:"max_results,omitempty" description:"The maximum number of results to return"`
}

// Tool exposes Search as duckduckgo_search returning JSON results.
func (d *DuckDuckGo) Tool() tool.Tool {
	return tool.NewTypedTool(DuckDuckGoSearchTool,
		"Use this function to search DuckDuckGo for a query.",
		func(tc *core.ToolContext, in ddgArgs) (any, error) {
			results, err := d.Search(tc.Context(), in.Query, in.MaxResults)
			if err != nil {
				return nil, tool.NewToolError(DuckDuckGoSearchTool, err.Error(), tool.CodeExecution)
			}

			return results, nil
		})
}
