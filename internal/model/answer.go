package model

// Answer is the assembled response for one question: the generated text,
// citation validation results, and any verified external links.
type Answer struct {
	Question string `json:"question"`

	// Text is the raw completion. CleanText has out-of-range citation
	// markers stripped; it equals Text when every marker was in range.
	Text      string `json:"text"`
	CleanText string `json:"clean_text"`

	// References are the distinct record positions (1..N) the answer
	// actually cited, ascending.
	References []int `json:"references"`

	// Links are external URLs that survived domain filtering and the
	// liveness probe. Empty when verification is disabled or timed out.
	Links []VerifiedLink `json:"links,omitempty"`

	Citations CitationSummary `json:"citations"`

	Provider   string `json:"provider,omitempty"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// CitationSummary reports how the generated text's citation markers
// classified against the record count.
type CitationSummary struct {
	Total         int   `json:"total"`
	Valid         int   `json:"valid"`
	Invalid       int   `json:"invalid"`
	InvalidValues []int `json:"invalid_values,omitempty"`
	HasOutOfRange bool  `json:"has_out_of_range"`
}

// VerifiedLink is a confirmed-live external URL, optionally enriched with
// the page title.
type VerifiedLink struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Assumed    bool   `json:"assumed,omitempty"` // live by policy, not observed
}
