package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/maktabalabs/maktaba/internal/citation"
	"github.com/maktabalabs/maktaba/internal/model"
	"github.com/maktabalabs/maktaba/internal/ratelimit"
)

const defaultVerifyDeadline = 30 * time.Second

// Server is the HTTP surface for the answer service
type Server struct {
	service *Service
	limiter *ratelimit.Limiter
	cfg     model.Config
	httpSrv *http.Server
}

// New creates a server around the service. limiter may be nil to disable
// rate limiting.
func New(service *Service, limiter *ratelimit.Limiter, cfg model.Config) *Server {
	s := &Server{
		service: service,
		limiter: limiter,
		cfg:     cfg,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ask", methodOnly(http.MethodPost, s.handleAsk))
	mux.HandleFunc("/v1/verify", methodOnly(http.MethodPost, s.handleVerify))
	mux.HandleFunc("/v1/citations", methodOnly(http.MethodPost, s.handleCitations))
	mux.HandleFunc("/healthz", methodOnly(http.MethodGet, s.handleHealth))

	handler := s.withCORS(s.withRateLimit(mux))

	s.httpSrv = &http.Server{
		Addr:         cfg.HTTP.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return s
}

// ListenAndServe runs the server until the context is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Handler exposes the configured handler for tests
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

type askRequest struct {
	Question string       `json:"question"`
	Books    []model.Book `json:"books"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !s.decode(w, r, &req) {
		return
	}

	if req.Question == "" {
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}
	if len(req.Books) == 0 {
		writeError(w, http.StatusBadRequest, "at least one book record is required")
		return
	}

	answer, err := s.service.BuildAnswer(r.Context(), req.Question, req.Books)
	if err != nil {
		if s.cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "ask failed: %v\n", err)
		}
		writeError(w, http.StatusBadGateway, "answer generation failed")
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

type verifyRequest struct {
	URLs []string `json:"urls"`
}

type verifyResponse struct {
	Verified []string `json:"verified"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	results := s.service.verifier.Results(r.Context(), req.URLs)

	resp := verifyResponse{Verified: []string{}}
	for _, res := range results {
		if res.Outcome.Alive() {
			resp.Verified = append(resp.Verified, res.URL)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type citationsRequest struct {
	Text       string `json:"text"`
	UpperBound int    `json:"upper_bound"`
}

func (s *Server) handleCitations(w http.ResponseWriter, r *http.Request) {
	var req citationsRequest
	if !s.decode(w, r, &req) {
		return
	}

	report, err := citation.Report(req.Text, req.UpperBound)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	provider := "disabled"
	if s.service.provider != nil {
		provider = s.service.provider.Name()
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"provider": provider,
	})
}

// methodOnly restricts a handler to a single HTTP method, mirroring the
// Go 1.22+ ServeMux "METHOD /path" patterns on older toolchains
func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

// decode reads a size-capped JSON body; writes the error response itself
// and returns false on failure
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	maxBytes := s.cfg.HTTP.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = 1_000_000
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
