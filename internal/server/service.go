package server

import (
	"context"
	"fmt"
	"os"

	"github.com/maktabalabs/maktaba/internal/citation"
	"github.com/maktabalabs/maktaba/internal/linkcheck"
	"github.com/maktabalabs/maktaba/internal/llm"
	"github.com/maktabalabs/maktaba/internal/model"
)

// Searcher gathers candidate links for a query, already filtered to the
// allowed suffix
type Searcher interface {
	Links(ctx context.Context, query, allowedSuffix string) ([]string, error)
}

// Verifier probes candidate URLs and reports per-URL outcomes
type Verifier interface {
	Results(ctx context.Context, urls []string) []linkcheck.Result
}

// Enricher decorates live probe results into response links
type Enricher interface {
	Enrich(ctx context.Context, results []linkcheck.Result) []model.VerifiedLink
}

// Service assembles answers: completion, citation validation, link
// verification. Stateless; one instance serves all requests.
type Service struct {
	provider llm.Provider
	searcher Searcher
	verifier Verifier
	enricher Enricher
	cfg      model.Config
}

// NewService creates the answer service. searcher and enricher may be nil
// when web links are disabled.
func NewService(provider llm.Provider, searcher Searcher, verifier Verifier, enricher Enricher, cfg model.Config) *Service {
	return &Service{
		provider: provider,
		searcher: searcher,
		verifier: verifier,
		enricher: enricher,
		cfg:      cfg,
	}
}

// BuildAnswer runs the full flow for one question. Upstream completion
// failures are returned; link-gathering failures degrade to an answer
// without links.
func (s *Service) BuildAnswer(ctx context.Context, question string, books []model.Book) (*model.Answer, error) {
	if question == "" {
		return nil, fmt.Errorf("question must not be empty")
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("at least one book record is required")
	}
	if s.provider == nil {
		return nil, fmt.Errorf("no completion provider configured")
	}

	resp, err := s.provider.Answer(ctx, llm.AnswerRequest{
		Question: question,
		Books:    books,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	// The record count is fixed for the rest of the request: it defines
	// the valid citation range
	upper := len(books)

	report, err := citation.Report(resp.Text, upper)
	if err != nil {
		return nil, fmt.Errorf("validate citations: %w", err)
	}
	ids, err := citation.DistinctValidIDs(resp.Text, upper)
	if err != nil {
		return nil, fmt.Errorf("collect references: %w", err)
	}

	answer := &model.Answer{
		Question:   question,
		Text:       resp.Text,
		CleanText:  report.CleanText,
		References: ids,
		Citations: model.CitationSummary{
			Total:         report.Total,
			Valid:         report.ValidCount,
			Invalid:       report.InvalidCount,
			InvalidValues: report.InvalidValues,
			HasOutOfRange: report.HasOutOfRange,
		},
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		TokensUsed: resp.TokensUsed,
	}

	answer.Links = s.gatherLinks(ctx, question)

	return answer, nil
}

// gatherLinks searches, verifies, and enriches under its own deadline.
// Any failure or timeout means the answer ships without links.
func (s *Service) gatherLinks(ctx context.Context, question string) []model.VerifiedLink {
	if s.searcher == nil || s.verifier == nil || !s.cfg.Search.Enabled {
		return nil
	}

	deadline := s.cfg.Verify.OverallDeadline
	if deadline <= 0 {
		deadline = defaultVerifyDeadline
	}
	vctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	candidates, err := s.searcher.Links(vctx, question, s.cfg.Verify.AllowedSuffix)
	if err != nil {
		if s.cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "link search failed: %v\n", err)
		}
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	results := s.verifier.Results(vctx, candidates)

	if s.enricher != nil {
		return s.enricher.Enrich(vctx, results)
	}
	return plainLinks(results)
}

// plainLinks converts probe results without title enrichment
func plainLinks(results []linkcheck.Result) []model.VerifiedLink {
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
	return links
}
