package knowledge

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// URLLoader fetches documents over HTTP. HTML pages are reduced to their
// visible text; other content types (markdown, plain text) are kept as is.
type URLLoader struct {
	URLs   []string
	Client *http.Client
	// MaxBytes caps each response body. Zero means 5 MiB.
	MaxBytes int64
}

// NewURLLoader creates a loader for urls with a 30s timeout client.
func NewURLLoader(urls ...string) *URLLoader {
	return &URLLoader{URLs: urls, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Load fetches every URL in order.
func (l *URLLoader) Load(ctx context.Context) ([]Document, error) {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	limit := l.MaxBytes
	if limit <= 0 {
		limit = 5 << 20
	}

	docs := make([]Document, 0, len(l.URLs))

	for _, u := range l.URLs {
		doc, err := l.fetch(ctx, client, u, limit)
		if err != nil {
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func (l *URLLoader) fetch(ctx context.Context, client *http.Client, url string, limit int64) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Document{}, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", url, err)
	}

	content := string(body)

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "text/html" {
		if content, err = ExtractText(strings.NewReader(content)); err != nil {
			return Document{}, fmt.Errorf("parse %s: %w", url, err)
		}
	}

	return Document{
		ID:       url,
		Content:  content,
		Source:   url,
		Metadata: map[string]string{"url": url, "content_type": mediaType},
	}, nil
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"nav": true, "footer": true, "head": true, "svg": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "br": true,
	"li": true, "tr": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "pre": true, "blockquote": true,
}

// ExtractText returns the visible text of an HTML document with block
// elements separated by newlines.
func ExtractText(r io.Reader) (string, error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
					b.WriteByte(' ')
				}

				b.WriteString(t)
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] && b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
			b.WriteByte('\n')
		}
	}

	walk(root)

	return strings.TrimSpace(b.String()), nil
}
