package llm

import (
	"context"
	"fmt"

	"github.com/maktabalabs/maktaba/internal/model"
)

// Provider defines the interface for completion providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Answer generates an answer to a question grounded on the supplied
	// book records
	Answer(ctx context.Context, req AnswerRequest) (*AnswerResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// AnswerRequest contains the input for answer generation
type AnswerRequest struct {
	// Question is the user's query from the search UI
	Question string

	// Books are the pre-filtered records the answer may cite, numbered
	// 1..len(Books) in prompt order
	Books []model.Book

	// Prompt is an optional custom prompt (if empty, built from Question and Books)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// AnswerResponse contains the provider's completion output
type AnswerResponse struct {
	// Text is the generated answer, citation markers included
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

const systemPrompt = "You are a library search assistant. Answer strictly from the numbered catalog records provided, citing them with bracketed numbers."

// BuildPrompt constructs the default prompt: the question plus every record
// rendered inside explicit field boundaries so titles and summaries cannot
// bleed into one another.
func BuildPrompt(question string, books []model.Book) string {
	prompt := fmt.Sprintf(`Answer the reader's question using ONLY the catalog records below.

RULES:
1. Cite records with bracketed numbers, e.g. [2]. Valid citations are [1] through [%d].
2. Never cite a number outside that range and never invent records.
3. If the records cannot answer the question, say so plainly.
4. Keep the answer under five sentences.

`, len(books))

	for i, book := range books {
		prompt += fmt.Sprintf("=== RECORD %d ===\n", i+1)
		prompt += fmt.Sprintf("Title: %s\n", book.Title)
		if book.Author != "" {
			prompt += fmt.Sprintf("Author: %s\n", book.Author)
		}
		if book.Year != 0 {
			prompt += fmt.Sprintf("Year: %d\n", book.Year)
		}
		if book.Language != "" {
			prompt += fmt.Sprintf("Language: %s\n", book.Language)
		}
		if book.Summary != "" {
			prompt += fmt.Sprintf("Summary: %s\n", book.Summary)
		}
		if book.Availability != "" {
			prompt += fmt.Sprintf("Availability: %s\n", book.Availability)
		}
		if book.Branch != "" {
			prompt += fmt.Sprintf("Branch: %s\n", book.Branch)
		}
		prompt += fmt.Sprintf("=== END RECORD %d ===\n\n", i+1)
	}

	prompt += fmt.Sprintf("Question: %s", question)

	return prompt
}
