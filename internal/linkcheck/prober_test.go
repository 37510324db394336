package linkcheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maktabalabs/maktaba/internal/model"
)

func init() {
	// Disable retry sleep in all tests for fast execution
	probeSleepFunc = func(d time.Duration) {}
}

func testProber(suffix string, assumeLive bool) *Prober {
	cfg := model.DefaultConfig()
	cfg.Verify.AllowedSuffix = suffix
	cfg.Verify.AssumeLiveOnFailure = assumeLive
	cfg.Verify.ProbeTimeout = 2 * time.Second
	cfg.Verify.GetTimeout = 2 * time.Second
	return NewProber(cfg.Verify, cfg.HTTP)
}

func TestProber_HeadSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("Expected HEAD request, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := testProber(".ae", true).Probe(context.Background(), server.URL)

	if result.Outcome != OutcomeLive {
		t.Errorf("Expected live, got %s", result.Outcome)
	}
	if result.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", result.StatusCode)
	}
}

func TestProber_NotFoundIsDead(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := testProber(".ae", true).Probe(context.Background(), server.URL)

	if result.Outcome != OutcomeDead {
		t.Errorf("Expected dead, got %s", result.Outcome)
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", result.StatusCode)
	}
}

func TestProber_GetFallback(t *testing.T) {
	for _, rejectStatus := range []int{http.StatusForbidden, http.StatusMethodNotAllowed} {
		var sawGet atomic.Bool
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodHead:
				w.WriteHeader(rejectStatus)
			case http.MethodGet:
				sawGet.Store(true)
				w.WriteHeader(http.StatusOK)
			}
		}))

		result := testProber(".ae", true).Probe(context.Background(), server.URL)
		server.Close()

		if !sawGet.Load() {
			t.Errorf("Status %d: expected GET fallback after HEAD rejection", rejectStatus)
		}
		if result.Outcome != OutcomeLive {
			t.Errorf("Status %d: expected live after GET fallback, got %s", rejectStatus, result.Outcome)
		}
	}
}

func TestProber_NetworkFailureRetriesOnce(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()

	var attempts atomic.Int32
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			attempts.Add(1)
			conn.Close() // slam the connection so the client sees a network error
		}
	}()

	result := testProber(".ae", false).Probe(context.Background(), "http://"+listener.Addr().String())

	if result.Outcome != OutcomeDead {
		t.Errorf("Expected dead for non-allowed domain, got %s", result.Outcome)
	}
	if result.Error == "" {
		t.Error("Expected error to be recorded")
	}
	if got := attempts.Load(); got != 2 {
		t.Errorf("Expected exactly 2 probe attempts (one retry), got %d", got)
	}
}

func TestProber_AssumeLivePolicy(t *testing.T) {
	// Unroutable target: every attempt fails at the network level
	deadURL := "http://127.0.0.1:1/page"

	tests := []struct {
		suffix     string
		assumeLive bool
		want       Outcome
		desc       string
	}{
		{".0.1", true, OutcomeAssumedLive, "allowed suffix with policy on"},
		{".0.1", false, OutcomeDead, "allowed suffix with policy off"},
		{".ae", true, OutcomeDead, "non-allowed suffix"},
	}

	for _, tt := range tests {
		prober := testProber(tt.suffix, tt.assumeLive)
		prober.headClient.Timeout = 500 * time.Millisecond

		result := prober.Probe(context.Background(), deadURL)
		if result.Outcome != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.desc, tt.want, result.Outcome)
		}
	}
}

func TestProber_CancelledContextIsDeadNotAssumed(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var sleeps atomic.Int32
	restore := probeSleepFunc
	probeSleepFunc = func(time.Duration) { sleeps.Add(1) }
	defer func() { probeSleepFunc = restore }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// httptest listens on 127.0.0.1, so ".0.1" puts the URL on the allowed
	// suffix with the assume-live policy on
	result := testProber(".0.1", true).Probe(ctx, server.URL+"/page")

	if result.Outcome != OutcomeDead {
		t.Errorf("Expected dead for cancelled context, got %s", result.Outcome)
	}
	if result.Error == "" {
		t.Error("Expected error to be recorded")
	}
	if requests.Load() != 0 {
		t.Errorf("Expected no requests after cancellation, saw %d", requests.Load())
	}
	if sleeps.Load() != 0 {
		t.Errorf("Expected no retry backoff after cancellation, saw %d sleeps", sleeps.Load())
	}
}

func TestProber_RedirectIsLive(t *testing.T) {
	final := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer final.Close()

	redirecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, final.URL, http.StatusMovedPermanently)
	}))
	defer redirecting.Close()

	result := testProber(".ae", true).Probe(context.Background(), redirecting.URL)

	if result.Outcome != OutcomeLive {
		t.Errorf("Expected redirected URL to be live, got %s", result.Outcome)
	}
}
