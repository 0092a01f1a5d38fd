package tools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"
)

const (
	SearchToolName    = "WebSearch"
	defaultSearchURL  = "https://html.duckduckgo.com/html/"
	maxSearchResults  = 5
	searchHTTPTimeout = 15 * time.Second

	searchDescription = `Search the internet for current information.
Input: Search query as string (e.g., "Tesla stock price 2024", "GDP growth USA")
Returns: Recent search results and snippets
Use this for current or recent information, news, statistics or real-time facts.
Do NOT use for general knowledge.`
)

var errEmptyQuery = errors.New("query is empty")

// Search scrapes the DuckDuckGo HTML endpoint for result snippets.
type Search struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// NewSearch builds the search tool, throttled to perSecond requests.
func NewSearch(baseURL string, perSecond float64) *Search {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Limit(1)
	}
	return &Search{
		baseURL: baseURL,
		client:  &http.Client{Timeout: searchHTTPTimeout},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (s *Search) Name() string        { return SearchToolName }
func (s *Search) Description() string { return searchDescription }

func (s *Search) Invoke(ctx context.Context, input string) string {
	query := strings.TrimSpace(input)
	return contain(ctx, SearchToolName, query, s.search, func(err error) string {
		return fmt.Sprintf("Search failed for %q: %v", query, err)
	})
}

func (s *Search) search(ctx context.Context, query string) (string, error) {
	if query == "" {
		return "", errEmptyQuery
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limited: %w", err)
	}

	endpoint, err := url.Parse(s.baseURL)
	if err != nil {
		return "", err
	}
	q := endpoint.Query()
	q.Set("q", query)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", "DigitalTwinBot/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("received status code %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse results: %w", err)
	}

	snippets := collectSnippets(doc, maxSearchResults)
	if len(snippets) == 0 {
		return fmt.Sprintf("No good search results found for %q.", query), nil
	}
	return strings.Join(snippets, "\n"), nil
}

func collectSnippets(doc *goquery.Document, limit int) []string {
	var out []string
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		title := collapse(s.Find(".result__a").First().Text())
		snippet := collapse(s.Find(".result__snippet").First().Text())
		switch {
		case title != "" && snippet != "":
			out = append(out, title+": "+snippet)
		case snippet != "":
			out = append(out, snippet)
		case title != "":
			out = append(out, title)
		}
		return len(out) < limit
	})
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
