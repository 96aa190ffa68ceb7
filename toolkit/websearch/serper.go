// Package websearch provides web search tools backed by Serper (Google
// results) and DuckDuckGo's HTML endpoint.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yuribarsotti/agentlab/core"
	"github.com/yuribarsotti/agentlab/tool"
)

// DefaultSerperURL is the Serper API base URL.
const DefaultSerperURL = "https://google.serper.dev"

// SearchGoogleTool is the Serper tool name.
const SearchGoogleTool = "search_google"

// ErrMissingAPIKey is returned when Serper has no API key.
var ErrMissingAPIKey = errors.New("serper: api key is required")

// SerperOptions configures the Serper tool.
type SerperOptions struct {
	APIKey     string
	BaseURL    string
	Location   string // gl, e.g. "us"
	Language   string // hl, e.g. "en"
	NumResults int
	HTTPClient *http.Client
}

// Serper is a client of the Serper Google search API.
type Serper struct {
	opts SerperOptions
	http *http.Client
}

// NewSerper creates a Serper client.
func NewSerper(optFns ...func(o *SerperOptions)) (*Serper, error) {
	opts := SerperOptions{BaseURL: DefaultSerperURL, Location: "us", Language: "en", NumResults: 10}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 20 * time.Second}
	}

	return &Serper{opts: opts, http: hc}, nil
}

// Search returns the raw Serper JSON response for query.
func (s *Serper) Search(ctx context.Context, query string, num int) (string, error) {
	if num <= 0 {
		num = s.opts.NumResults
	}

	payload, err := json.Marshal(map[string]any{
		"q":   query,
		"gl":  s.opts.Location,
		"hl":  s.opts.Language,
		"num": num,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.opts.BaseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build serper request: %w", err)
	}

	req.Header.Set("X-API-KEY", s.opts.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("read serper response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("serper: unexpected status %s: %s", resp.Status, bytes.TrimSpace(body))
	}

	return string(body), nil
}

type searchArgs struct {
	Query      string `json:"query" description:"The query to search for"`
	NumResults int    `json:"num_results,omitempty" description:"Number of results to return"`
}

// Tool exposes Search as search_google.
func (s *Serper) Tool() tool.Tool {
	return tool.NewTypedTool(SearchGoogleTool,
		"Use this function to search Google for a query.",
		func(tc *core.ToolContext, in searchArgs) (any, error) {
			out, err := s.Search(tc.Context(), in.Query, in.NumResults)
			if err != nil {
				return nil, tool.NewToolError(SearchGoogleTool, err.Error(), tool.CodeExecution)
			}

			return out, nil
		})
}
