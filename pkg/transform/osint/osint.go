// Package osint provides the built-in transforms: best-effort lookups
// against public web sources that expand an entity into related entities.
// Every transform in this package degrades gracefully: an unreachable source
// contributes nothing instead of failing the run.
package osint

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/blackvectorops/pano/pkg/entity"
	"github.com/blackvectorops/pano/pkg/transform"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Sources configures the shared dependencies of the built-in transforms.
type Sources struct {
	// HTTPClient is used for all outbound requests. Nil means a client with
	// a 15 second timeout.
	HTTPClient *http.Client
	// Entities constructs result entities. Required.
	Entities *entity.Registry
	// SearchBaseURL overrides the DuckDuckGo HTML endpoint, for tests.
	SearchBaseURL string
}

func (s *Sources) client() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 15 * time.Second}
}

func (s *Sources) searchBase() string {
	if s.SearchBaseURL != "" {
		return s.SearchBaseURL
	}
	return "https://html.duckduckgo.com/html/"
}

// All returns every built-in transform wired to the given sources.
func All(src *Sources) []transform.Transform {
	return []transform.Transform{
		NewEmailLookup(src),
		NewUsernameSearch(src),
		NewTextSearch(src),
		NewReverseImageSearch(src),
	}
}

// get fetches a URL with a browser User-Agent and returns the body.
func get(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	return io.ReadAll(resp.Body)
}

// head reports whether a URL answers 200 to a HEAD request.
func head(ctx context.Context, client *http.Client, rawURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// searchResult is one parsed web search hit.
type searchResult struct {
	URL         string
	Title       string
	Description string
	Source      string
}

// parseSearchResults walks DuckDuckGo's HTML results page. Result links
// carry the result__a class; snippets the result__snippet class.
func parseSearchResults(body []byte, source string, limit int) []searchResult {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil
	}

	var results []searchResult
	var current *searchResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= limit {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			classes := attr(n, "class")
			switch {
			case strings.Contains(classes, "result__a"):
				if href := cleanResultURL(attr(n, "href")); href != "" {
					results = append(results, searchResult{
						URL:    href,
						Title:  textContent(n),
						Source: source,
					})
					current = &results[len(results)-1]
				}
			case strings.Contains(classes, "result__snippet"):
				if current != nil && current.Description == "" {
					current.Description = textContent(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return results
}

// cleanResultURL unwraps DuckDuckGo's redirect links (/l/?uddg=<target>)
// and drops anything that is not an absolute http(s) URL.
func cleanResultURL(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if target := u.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			href = decoded
			u, err = url.Parse(href)
			if err != nil {
				return ""
			}
		}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return href
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
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
	return strings.TrimSpace(b.String())
}

// domainOf extracts the host from a URL, dropping any www prefix.
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}
