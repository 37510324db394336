package worker

import (
	"context"

	"github.com/maktabalabs/maktaba/internal/linkcheck"
)

// Checker probes a single URL for liveness
type Checker interface {
	Probe(ctx context.Context, rawURL string) linkcheck.Result
}

// ProbeJob probes one URL
type ProbeJob struct {
	URL     string
	Checker Checker
}

// Execute runs the probe
func (j *ProbeJob) Execute(ctx context.Context) Result {
	return &ProbeResult{Result: j.Checker.Probe(ctx, j.URL)}
}

// ProbeResult wraps a liveness result for the pool
type ProbeResult struct {
	Result linkcheck.Result
}

// GetError always returns nil: probe failures are outcomes, not errors
func (r *ProbeResult) GetError() error {
	return nil
}

// BatchProber probes many URLs concurrently and reports every outcome,
// dead ones included. The CLI verify command uses it for detailed output;
// the request path uses linkcheck.Verifier instead.
type BatchProber struct {
	checker     Checker
	concurrency int
}

// NewBatchProber creates a batch prober
func NewBatchProber(checker Checker, concurrency int) *BatchProber {
	return &BatchProber{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProbeURLs probes all URLs through the pool, returning results in input
// order with duplicates collapsed.
func (b *BatchProber) ProbeURLs(ctx context.Context, urls []string) []linkcheck.Result {
	if len(urls) == 0 {
		return []linkcheck.Result{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-done:
		}
	}()

	for _, u := range urls {
		pool.Submit(&ProbeJob{URL: u, Checker: b.checker})
	}

	byURL := make(map[string]linkcheck.Result, len(urls))
	for _, r := range pool.Wait() {
		if pr, ok := r.(*ProbeResult); ok {
			byURL[pr.Result.URL] = pr.Result
		}
	}

	ordered := make([]linkcheck.Result, 0, len(urls))
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		if res, ok := byURL[u]; ok {
			ordered = append(ordered, res)
		}
	}
	return ordered
}
