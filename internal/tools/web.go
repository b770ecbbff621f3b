package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
)

const (
	webUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_7_2) AppleWebKit/537.36"
	maxRedirects = 5
)

// validateURL checks that rawURL is http(s) with a valid domain.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("only http/https allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing domain in URL")
	}
	return nil
}

// NewWebSearchTool builds the web_search definition (Brave Search API).
// apiKey is BRAVE_API_KEY; maxResults defaults to 5.
func NewWebSearchTool(apiKey string, maxResults int) *Definition {
	if maxResults <= 0 {
		maxResults = 5
	}
	client := &http.Client{Timeout: 10 * time.Second}

	schema := NewSchema().
		String("query", Describe("Search query")).
		Integer("count",
			Describe("Number of results"),
			Minimum(1), Maximum(10),
			Default(maxResults)).
		MustBuild()

	return NewDefinition(
		DeriveName("WebSearchTool"),
		"Search the web. Returns titles, URLs, and snippets.",
		schema,
		func(ctx context.Context, args map[string]any, _ RequestContext) (string, error) {
			if apiKey == "" {
				return "Error: BRAVE_API_KEY not configured", nil
			}
			query := args["query"].(string)
			n := int(args["count"].(int64))

			req, err := http.NewRequestWithContext(ctx, http.MethodGet,
				"https://api.search.brave.com/res/v1/web/search", nil)
			if err != nil {
				return "", err
			}
			q := req.URL.Query()
			q.Set("q", query)
			q.Set("count", fmt.Sprintf("%d", n))
			req.URL.RawQuery = q.Encode()
			req.Header.Set("Accept", "application/json")
			req.Header.Set("X-Subscription-Token", apiKey)

			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()

			var data struct {
				Web struct {
					Results []struct {
						Title       string `json:"title"`
						URL         string `json:"url"`
						Description string `json:"description"`
					} `json:"results"`
				} `json:"web"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
				return "", fmt.Errorf("parse search response: %w", err)
			}

			results := data.Web.Results
			if len(results) == 0 {
				return fmt.Sprintf("No results for: %s", query), nil
			}

			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("Results for: %s\n\n", query))
			for i, item := range results {
				if i >= n {
					break
				}
				sb.WriteString(fmt.Sprintf("%d. %s\n   %s", i+1, item.Title, item.URL))
				if item.Description != "" {
					sb.WriteString("\n   " + item.Description)
				}
				sb.WriteString("\n")
			}
			return sb.String(), nil
		},
	)
}

// NewWebFetchTool builds the web_fetch definition: fetch a URL and extract
// readable content. maxChars defaults to 50000.
func NewWebFetchTool(maxChars int) *Definition {
	if maxChars <= 0 {
		maxChars = 50000
	}
	client := &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}

	schema := NewSchema().
		String("url", Describe("URL to fetch")).
		String("extract_mode",
			Describe("Output format"),
			Enum("markdown", "text"),
			Default("markdown")).
		Integer("max_chars", Minimum(100), Default(maxChars)).
		MustBuild()

	return NewDefinition(
		DeriveName("WebFetchTool"),
		"Fetch a URL and extract readable content (HTML → markdown/text).",
		schema,
		func(ctx context.Context, args map[string]any, _ RequestContext) (string, error) {
			rawURL := args["url"].(string)
			if err := validateURL(rawURL); err != nil {
				return fmt.Sprintf("Error: URL validation failed: %v", err), nil
			}
			extractMode := args["extract_mode"].(string)
			limit := int(args["max_chars"].(int64))

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
			if err != nil {
				return "", err
			}
			req.Header.Set("User-Agent", webUserAgent)

			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()

			bodyBytes, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}

			text, extractor := extractContent(bodyBytes, resp.Header.Get("Content-Type"), rawURL, extractMode)

			truncated := len(text) > limit
			if truncated {
				text = text[:limit]
			}

			out, _ := json.Marshal(map[string]any{
				"url":       rawURL,
				"finalUrl":  resp.Request.URL.String(),
				"status":    resp.StatusCode,
				"extractor": extractor,
				"truncated": truncated,
				"length":    len(text),
				"text":      text,
			})
			return string(out), nil
		},
	)
}

// extractContent turns a response body into readable text.
func extractContent(body []byte, ctype, rawURL, extractMode string) (text, extractor string) {
	switch {
	case strings.Contains(ctype, "application/json"):
		var jsonData any
		if err := json.Unmarshal(body, &jsonData); err == nil {
			formatted, _ := json.MarshalIndent(jsonData, "", "  ")
			return string(formatted), "json"
		}
		return string(body), "json"

	case strings.Contains(ctype, "text/html") || isHTMLPrefix(body):
		parsedURL, _ := url.Parse(rawURL)
		article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
		if err != nil {
			return stripHTMLTags(string(body)), "readability"
		}
		if extractMode == "markdown" {
			text = htmlToMarkdown(article.Content)
		} else {
			text = stripHTMLTags(article.Content)
		}
		if article.Title != "" {
			text = "# " + article.Title + "\n\n" + text
		}
		return text, "readability"

	default:
		return string(body), "raw"
	}
}

// isHTMLPrefix returns true if the body starts with an HTML declaration.
func isHTMLPrefix(b []byte) bool {
	prefix := strings.ToLower(strings.TrimSpace(string(b[:min(256, len(b))])))
	return strings.HasPrefix(prefix, "<!doctype") || strings.HasPrefix(prefix, "<html")
}

// ---------------------------------------------------------------------------
// HTML → text/markdown helpers
// ---------------------------------------------------------------------------

var (
	reScript    = regexp.MustCompile(`(?is)<script[\s\S]*?</script>`)
	reStyle     = regexp.MustCompile(`(?is)<style[\s\S]*?</style>`)
	reTags      = regexp.MustCompile(`<[^>]+>`)
	reSpaces    = regexp.MustCompile(`[ \t]+`)
	reNewlines  = regexp.MustCompile(`\n{3,}`)
	reLinks     = regexp.MustCompile(`(?is)<a\s+[^>]*href=["']([^"']+)["'][^>]*>([\s\S]*?)</a>`)
	reHeadings  = regexp.MustCompile(`(?is)<h([1-6])[^>]*>([\s\S]*?)</h[1-6]>`)
	reListItems = regexp.MustCompile(`(?is)<li[^>]*>([\s\S]*?)</li>`)
	reBlockEnd  = regexp.MustCompile(`(?is)</(p|div|section|article)>`)
	reLineBreak = regexp.MustCompile(`(?is)<(br|hr)\s*/?>`)
)

// stripHTMLTags removes all HTML tags and normalizes whitespace.
func stripHTMLTags(text string) string {
	text = reScript.ReplaceAllString(text, "")
	text = reStyle.ReplaceAllString(text, "")
	text = reTags.ReplaceAllString(text, "")
	text = reSpaces.ReplaceAllString(text, " ")
	text = reNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// htmlToMarkdown converts HTML to a simple markdown representation.
func htmlToMarkdown(htmlText string) string {
	text := reLinks.ReplaceAllStringFunc(htmlText, func(m string) string {
		parts := reLinks.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		return fmt.Sprintf("[%s](%s)", stripHTMLTags(parts[2]), parts[1])
	})
	text = reHeadings.ReplaceAllStringFunc(text, func(m string) string {
		parts := reHeadings.FindStringSubmatch(m)
		if len(parts) < 3 {
			return m
		}
		level := int(parts[1][0] - '0')
		return fmt.Sprintf("\n%s %s\n", strings.Repeat("#", level), stripHTMLTags(parts[2]))
	})
	text = reListItems.ReplaceAllStringFunc(text, func(m string) string {
		parts := reListItems.FindStringSubmatch(m)
		if len(parts) < 2 {
			return m
		}
		return "\n- " + stripHTMLTags(parts[1])
	})
	text = reBlockEnd.ReplaceAllString(text, "\n\n")
	text = reLineBreak.ReplaceAllString(text, "\n")
	return stripHTMLTags(text)
}
