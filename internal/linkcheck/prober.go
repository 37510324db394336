package linkcheck

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/util"
)

// probeSleepFunc is the sleep function used before the probe retry
// (injectable for tests)
var probeSleepFunc = time.Sleep

const retryBackoff = time.Second

// Outcome classifies the result of a liveness probe.
type Outcome int

const (
	OutcomeDead Outcome = iota
	OutcomeLive
	// OutcomeAssumedLive means the probe failed on network errors but the
	// URL sits on the allowed suffix and policy gives it the benefit of
	// the doubt.
	OutcomeAssumedLive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLive:
		return "live"
	case OutcomeAssumedLive:
		return "assumed_live"
	default:
		return "dead"
	}
}

// Alive reports whether the URL should be surfaced to the caller.
func (o Outcome) Alive() bool {
	return o == OutcomeLive || o == OutcomeAssumedLive
}

// Result pairs a probed URL with its liveness outcome.
type Result struct {
	URL        string  `json:"url"`
	Outcome    Outcome `json:"outcome"`
	StatusCode int     `json:"status_code,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Prober checks whether a single URL is currently reachable. HEAD first;
// hosts that reject HEAD with 403 or 405 get one full GET. Network
// failures retry the whole probe once before the allowed-domain policy
// decides the outcome.
type Prober struct {
	headClient *http.Client
	getClient  *http.Client
	userAgent  string
	suffix     string
	assumeLive bool
}

// NewProber creates a prober from verification and HTTP configuration
func NewProber(cfg model.VerifyConfig, httpCfg model.HTTPConfig) *Prober {
	probeTimeout := cfg.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 8 * time.Second
	}
	getTimeout := cfg.GetTimeout
	if getTimeout <= 0 {
		getTimeout = 15 * time.Second
	}

	proxyFunc := util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)
	redirectCap := func(req *http.Request, via []*http.Request) error {
		if len(via) >= 3 {
			return fmt.Errorf("stopped after 3 redirects")
		}
		return nil
	}

	return &Prober{
		headClient: &http.Client{
			Timeout:       probeTimeout,
			Transport:     &http.Transport{Proxy: proxyFunc},
			CheckRedirect: redirectCap,
		},
		getClient: &http.Client{
			Timeout:       getTimeout,
			Transport:     &http.Transport{Proxy: proxyFunc},
			CheckRedirect: redirectCap,
		},
		userAgent:  httpCfg.UserAgent,
		suffix:     cfg.AllowedSuffix,
		assumeLive: cfg.AssumeLiveOnFailure,
	}
}

// Probe checks liveness of one URL. It never returns a network error;
// failures become an Outcome.
func (p *Prober) Probe(ctx context.Context, rawURL string) Result {
	result := Result{URL: rawURL}

	var status int
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		status, err = p.attempt(ctx, rawURL)
		if err == nil {
			break
		}
		// A cancelled or expired context is the caller giving up, not the
		// target failing: no retry, no benefit of the doubt
		if ctx.Err() != nil {
			break
		}
		if attempt == 0 {
			probeSleepFunc(retryBackoff)
		}
	}

	if err != nil {
		result.Error = err.Error()
		if ctx.Err() == nil && p.assumeLive && IsAllowedDomain(rawURL, p.suffix) {
			result.Outcome = OutcomeAssumedLive
		} else {
			result.Outcome = OutcomeDead
		}
		return result
	}

	result.StatusCode = status
	if status >= 200 && status < 400 {
		result.Outcome = OutcomeLive
	} else {
		result.Outcome = OutcomeDead
	}
	return result
}

// attempt runs one probe progression: TryHead, then TryGet when the host
// rejects the HEAD method.
func (p *Prober) attempt(ctx context.Context, rawURL string) (int, error) {
	status, err := p.request(ctx, p.headClient, http.MethodHead, rawURL)
	if err != nil {
		return 0, err
	}

	if status == http.StatusForbidden || status == http.StatusMethodNotAllowed {
		return p.request(ctx, p.getClient, http.MethodGet, rawURL)
	}

	return status, nil
}

func (p *Prober) request(ctx context.Context, client *http.Client, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", p.userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s failed: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode, nil
}
