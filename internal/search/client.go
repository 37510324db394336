package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/maktabalabs/maktaba/internal/cache"
	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/model"
)

// Client talks to a SearXNG-compatible web search API to gather candidate
// links for an answer. Results are only candidates: the verifier decides
// what actually gets surfaced.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	maxResults int
	cache      cache.Cache
	cacheTTL   time.Duration
}

// Result is a single search hit
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content,omitempty"`
	Engine  string  `json:"engine,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// response is the search API's JSON envelope
type response struct {
	Query           string   `json:"query"`
	NumberOfResults int      `json:"number_of_results"`
	Results         []Result `json:"results"`
}

// NewClient creates a search client. The cache may be nil when results
// should not be reused across requests.
func NewClient(cfg model.SearchConfig, userAgent string, c cache.Cache, cacheTTL time.Duration) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	if c == nil {
		c = cache.Nop{}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
		maxResults: maxResults,
		cache:      c,
		cacheTTL:   cacheTTL,
	}
}

// Search runs a query against the API. Non-2xx responses surface as
// errors so the caller can degrade to an empty link set.
func (c *Client) Search(ctx context.Context, query string) ([]Result, error) {
	key := cache.Key("search", query)
	if data, found := c.cache.Get(key); found {
		var cached []Result
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid search base URL: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2_000_000))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var parsed response
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	results := parsed.Results
	if len(results) > c.maxResults {
		results = results[:c.maxResults]
	}

	if data, err := json.Marshal(results); err == nil {
		_ = c.cache.Set(key, data, c.cacheTTL)
	}

	return results, nil
}

// Links searches and returns just the result URLs that sit on the allowed
// suffix, in result order. Off-suffix hits are discarded before any
// verification happens.
func (c *Client) Links(ctx context.Context, query, allowedSuffix string) ([]string, error) {
	results, err := c.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	links := make([]string, 0, len(results))
	for _, r := range results {
		cleaned := linkcheck.Clean(r.URL)
		if linkcheck.IsValid(cleaned) && linkcheck.IsAllowedDomain(cleaned, allowedSuffix) {
			links = append(links, cleaned)
		}
	}
	return links, nil
}
