package linkcheck

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/maktabalabs/maktaba/internal/cache"
	"github.com/maktabalabs/maktaba/internal/model"
)

// Verifier turns a list of arbitrary candidate strings into the subset
// that is well-formed, on the allowed suffix, and confirmed reachable.
type Verifier struct {
	prober      *Prober
	cache       cache.Cache
	cacheTTL    time.Duration
	suffix      string
	maxBatch    int
	concurrency int
}

// NewVerifier creates a verifier. The cache may be cache.Nop{} when probe
// results should not be reused across requests.
func NewVerifier(cfg model.VerifyConfig, httpCfg model.HTTPConfig, c cache.Cache, cacheTTL time.Duration) *Verifier {
	maxBatch := cfg.MaxBatch
	if maxBatch <= 0 {
		maxBatch = 10
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 3
	}
	if c == nil {
		c = cache.Nop{}
	}

	return &Verifier{
		prober:      NewProber(cfg, httpCfg),
		cache:       c,
		cacheTTL:    cacheTTL,
		suffix:      cfg.AllowedSuffix,
		maxBatch:    maxBatch,
		concurrency: concurrency,
	}
}

// VerifyBatch cleans, filters, deduplicates, and probes the candidates,
// returning only live and assumed-live URLs in their original relative
// order. An empty candidate set returns immediately with no network calls.
func (v *Verifier) VerifyBatch(ctx context.Context, urls []string) []string {
	results := v.Results(ctx, urls)

	verified := make([]string, 0, len(results))
	for _, r := range results {
		if r.Outcome.Alive() {
			verified = append(verified, r.URL)
		}
	}
	return verified
}

// Results runs the same batch but keeps per-URL outcomes, for callers
// that want status codes or the assumed-live distinction.
func (v *Verifier) Results(ctx context.Context, urls []string) []Result {
	candidates := v.filter(urls)
	if len(candidates) == 0 {
		return []Result{}
	}

	results := make([]Result, len(candidates))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, v.concurrency)

	for i, candidate := range candidates {
		wg.Add(1)
		go func(idx int, u string) {
			defer wg.Done()

			// select alone is not enough: with a free semaphore slot and a
			// done context the pick is random
			if ctx.Err() != nil {
				results[idx] = Result{URL: u, Outcome: OutcomeDead, Error: "context cancelled"}
				return
			}

			select {
			case <-ctx.Done():
				results[idx] = Result{URL: u, Outcome: OutcomeDead, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.probeCached(ctx, u)
		}(i, candidate)
	}

	wg.Wait()
	return results
}

// filter maps candidates through Clean, drops malformed and off-suffix
// entries, deduplicates, and caps the survivors at the batch limit.
func (v *Verifier) filter(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	candidates := make([]string, 0, len(urls))

	for _, raw := range urls {
		cleaned := Clean(raw)
		if !IsValid(cleaned) || !IsAllowedDomain(cleaned, v.suffix) {
			continue
		}
		if seen[cleaned] {
			continue
		}
		seen[cleaned] = true

		candidates = append(candidates, cleaned)
		if len(candidates) >= v.maxBatch {
			break
		}
	}

	return candidates
}

func (v *Verifier) probeCached(ctx context.Context, rawURL string) Result {
	key := cache.Key("probe", rawURL)

	if data, found := v.cache.Get(key); found {
		var cached Result
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached
		}
	}

	result := v.prober.Probe(ctx, rawURL)

	// Cancelled probes are not representative; keep them out of the cache
	if ctx.Err() == nil {
		if data, err := json.Marshal(result); err == nil {
			_ = v.cache.Set(key, data, v.cacheTTL)
		}
	}

	return result
}
