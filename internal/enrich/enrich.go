package enrich

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/worker"
	"golang.org/x/net/html"
)

const (
	fetchTimeout   = 10 * time.Second
	maxTitleBytes  = 256 * 1024 // titles live in <head>; no need to read whole pages
	maxConcurrency = 3
)

// Enricher decorates verified links with page titles. Fetches are polite:
// robots.txt is honored and each domain is rate limited. Every failure
// degrades to the bare URL.
type Enricher struct {
	httpClient *http.Client
	robots     *RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
}

// New creates an enricher
func New(userAgent string) *Enricher {
	return &Enricher{
		httpClient: &http.Client{Timeout: fetchTimeout},
		robots:     NewRobotsChecker(userAgent, fetchTimeout),
		limiter:    worker.NewLimiter(2, 2),
		userAgent:  userAgent,
	}
}

// Enrich converts probe results into response links, fetching page titles
// for the live ones. Dead results are skipped; order is preserved.
func (e *Enricher) Enrich(ctx context.Context, results []linkcheck.Result) []model.VerifiedLink {
	links := make([]model.VerifiedLink, 0, len(results))
	for _, r := range results {
		if !r.Outcome.Alive() {
			continue
		}
		links = append(links, model.VerifiedLink{
			URL:        r.URL,
			StatusCode: r.StatusCode,
			Assumed:    r.Outcome == linkcheck.OutcomeAssumedLive,
		})
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrency)

	for i := range links {
		// Assumed-live pages failed their probes; fetching them again
		// would just burn the deadline
		if links[i].Assumed {
			continue
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			if title := e.fetchTitle(ctx, links[idx].URL); title != "" {
				links[idx].Title = title
			}
		}(i)
	}

	wg.Wait()
	return links
}

// fetchTitle politely fetches a page and extracts its <title>. Returns ""
// on any failure.
func (e *Enricher) fetchTitle(ctx context.Context, rawURL string) string {
	allowed, crawlDelay, err := e.robots.CanFetch(ctx, rawURL)
	if err != nil || !allowed {
		return ""
	}
	if crawlDelay > 5*time.Second {
		crawlDelay = 5 * time.Second
	}
	if err := e.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ""
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTitleBytes))
	if err != nil {
		return ""
	}

	return ExtractTitle(string(body))
}

// ExtractTitle pulls the first <title> element out of an HTML document.
func ExtractTitle(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)

	return title
}
