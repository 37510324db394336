package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/maktabalabs/maktaba/internal/cache"
	"github.com/maktabalabs/maktaba/internal/model"
)

func searchServer(t *testing.T, results []Result, requests *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("Expected format=json, got %q", r.URL.Query().Get("format"))
		}
		if r.URL.Query().Get("q") == "" {
			t.Error("Expected q parameter")
		}
		_ = json.NewEncoder(w).Encode(response{
			Query:   r.URL.Query().Get("q"),
			Results: results,
		})
	}))
}

func testConfig(baseURL string) model.SearchConfig {
	return model.SearchConfig{
		Enabled:    true,
		BaseURL:    baseURL,
		Timeout:    2 * time.Second,
		MaxResults: 10,
	}
}

func TestClient_Search(t *testing.T) {
	server := searchServer(t, []Result{
		{Title: "WAM article", URL: "https://wam.ae/news/1"},
		{Title: "Other", URL: "https://example.com/2"},
	}, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), "test-agent", nil, 0)

	results, err := client.Search(context.Background(), "library news")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Title != "WAM article" {
		t.Errorf("Unexpected first result: %+v", results[0])
	}
}

func TestClient_Search_MaxResults(t *testing.T) {
	var many []Result
	for i := 0; i < 8; i++ {
		many = append(many, Result{URL: "https://wam.ae/news", Title: "x"})
	}
	server := searchServer(t, many, nil)
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.MaxResults = 3
	client := NewClient(cfg, "test-agent", nil, 0)

	results, err := client.Search(context.Background(), "q")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("Expected results capped at 3, got %d", len(results))
	}
}

func TestClient_Search_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL), "test-agent", nil, 0)

	if _, err := client.Search(context.Background(), "q"); err == nil {
		t.Error("Expected error on non-2xx status")
	}
}

func TestClient_Search_Cached(t *testing.T) {
	var requests atomic.Int32
	server := searchServer(t, []Result{{URL: "https://wam.ae/1"}}, &requests)
	defer server.Close()

	client := NewClient(testConfig(server.URL), "test-agent",
		cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := client.Search(context.Background(), "same query"); err != nil {
			t.Fatalf("Search %d failed: %v", i, err)
		}
	}

	if requests.Load() != 1 {
		t.Errorf("Expected 1 API call thanks to caching, saw %d", requests.Load())
	}
}

func TestClient_Links_FiltersToAllowedSuffix(t *testing.T) {
	server := searchServer(t, []Result{
		{URL: "https://wam.ae/news/1"},
		{URL: "https://example.com/2"},
		{URL: "not a url"},
		{URL: "  https://mohap.gov.ae/page  "},
	}, nil)
	defer server.Close()

	client := NewClient(testConfig(server.URL), "test-agent", nil, 0)

	links, err := client.Links(context.Background(), "q", ".ae")
	if err != nil {
		t.Fatalf("Links failed: %v", err)
	}

	want := []string{"https://wam.ae/news/1", "https://mohap.gov.ae/page"}
	if len(links) != len(want) {
		t.Fatalf("Expected %d links, got %d: %v", len(want), len(links), links)
	}
	for i := range want {
		if links[i] != want[i] {
			t.Errorf("Position %d: expected %s, got %s", i, want[i], links[i])
		}
	}
}
