package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/maktabalabs/maktaba/internal/cache"
	"github.com/maktabalabs/maktaba/internal/enrich"
	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/llm"
	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/ratelimit"
	"github.com/maktabalabs/maktaba/internal/search"
	"github.com/maktabalabs/maktaba/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveListen      string
	serveProvider    string
	serveModel       string
	serveSearchURL   string
	serveSuffix      string
	serveAssumeLive  bool
	serveEnrich      bool
	serveCacheDir    string
	serveNoCache     bool
	serveNoRateLimit bool
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP answer backend",
	Long: `Serve starts the HTTP API used by the library search UI:

  POST /v1/ask        question + book records -> answer with validated
                      citations and verified links
  POST /v1/verify     candidate URLs -> confirmed-live subset
  POST /v1/citations  text + record count -> citation validation report
  GET  /healthz       liveness

Example:
  maktaba serve --provider openai --search-url http://localhost:8888/search
  maktaba serve --provider anthropic --suffix .ae --enrich`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveProvider, "provider", "", "completion provider (openai, anthropic)")
	serveCmd.Flags().StringVar(&serveModel, "model", "", "model name (provider default when empty)")
	serveCmd.Flags().StringVar(&serveSearchURL, "search-url", "", "web search API base URL (enables link gathering)")
	serveCmd.Flags().StringVar(&serveSuffix, "suffix", ".ae", "allowed domain suffix for external links")
	serveCmd.Flags().BoolVar(&serveAssumeLive, "assume-live", true, "treat allowed-suffix URLs as live when probes fail on network errors")
	serveCmd.Flags().BoolVar(&serveEnrich, "enrich", false, "fetch page titles for verified links")
	serveCmd.Flags().StringVar(&serveCacheDir, "cache-dir", "", "persist probe/search caches under this directory")
	serveCmd.Flags().BoolVar(&serveNoCache, "no-cache", false, "disable probe/search caching")
	serveCmd.Flags().BoolVar(&serveNoRateLimit, "no-rate-limit", false, "disable the per-IP rate limit")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := buildServeConfig()

	if err := llm.ResolveAPIKey(&cfg.LLM); err != nil {
		return err
	}

	provider, err := llm.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}

	store := cache.New(cfg.Cache)

	verifier := linkcheck.NewVerifier(cfg.Verify, cfg.HTTP, store, cfg.Cache.TTL)

	var searcher server.Searcher
	if cfg.Search.Enabled {
		searcher = search.NewClient(cfg.Search, cfg.HTTP.UserAgent, store, cfg.Cache.TTL)
	}

	var enricher server.Enricher
	if cfg.Verify.Enrich {
		enricher = enrich.New(cfg.HTTP.UserAgent)
	}

	var limiter *ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.New(ratelimit.NewMemoryStore(), cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}

	svc := server.NewService(provider, searcher, verifier, enricher, cfg)
	srv := server.New(svc, limiter, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if verbose {
		fmt.Fprintf(os.Stderr, "Listening on %s\n", cfg.HTTP.Listen)
		if provider != nil {
			fmt.Fprintf(os.Stderr, "Provider: %s\n", provider.Name())
		} else {
			fmt.Fprintln(os.Stderr, "Provider: disabled (verify/citations endpoints only)")
		}
		fmt.Fprintf(os.Stderr, "Allowed suffix: %s\n", cfg.Verify.AllowedSuffix)
	}

	return srv.ListenAndServe(ctx)
}

// buildServeConfig layers flags over config file/env values over defaults
func buildServeConfig() model.Config {
	cfg := model.DefaultConfig()

	// Config file / environment
	if v := viper.GetString("llm.provider"); v != "" {
		cfg.LLM.Provider = v
	}
	if v := viper.GetString("llm.model"); v != "" {
		cfg.LLM.Model = v
	}
	if v := viper.GetString("llm.base_url"); v != "" {
		cfg.LLM.BaseURL = v
	}
	if v := viper.GetString("search.base_url"); v != "" {
		cfg.Search.BaseURL = v
		cfg.Search.Enabled = true
	}
	if v := viper.GetString("verify.allowed_suffix"); v != "" {
		cfg.Verify.AllowedSuffix = v
	}
	if viper.IsSet("verify.assume_live_on_failure") {
		cfg.Verify.AssumeLiveOnFailure = viper.GetBool("verify.assume_live_on_failure")
	}
	if v := viper.GetInt("rate_limit.requests"); v > 0 {
		cfg.RateLimit.Requests = v
	}
	if v := viper.GetDuration("rate_limit.window"); v > 0 {
		cfg.RateLimit.Window = v
	}

	// Flags win
	cfg.HTTP.Listen = serveListen
	if serveProvider != "" {
		cfg.LLM.Provider = serveProvider
	}
	if serveModel != "" {
		cfg.LLM.Model = serveModel
	}
	if serveSearchURL != "" {
		cfg.Search.BaseURL = serveSearchURL
		cfg.Search.Enabled = true
	}
	cfg.Verify.AllowedSuffix = serveSuffix
	cfg.Verify.AssumeLiveOnFailure = serveAssumeLive
	cfg.Verify.Enrich = serveEnrich
	if serveCacheDir != "" {
		cfg.Cache.Dir = serveCacheDir
	}
	if serveNoCache {
		cfg.Cache.Enabled = false
	}
	if serveNoRateLimit {
		cfg.RateLimit.Enabled = false
	}
	cfg.Output.Verbose = verbose

	clampVerifyDeadline(&cfg)

	return cfg
}

// clampVerifyDeadline keeps the link-verification deadline inside the
// server's write timeout, with a one-second floor so a tight timeout never
// pushes the deadline to zero and back onto its 30s default
func clampVerifyDeadline(cfg *model.Config) {
	if cfg.HTTP.WriteTimeout <= 0 || cfg.Verify.OverallDeadline < cfg.HTTP.WriteTimeout {
		return
	}

	headroom := cfg.HTTP.WriteTimeout - 5*time.Second
	if headroom < time.Second {
		headroom = time.Second
	}
	cfg.Verify.OverallDeadline = headroom
}
