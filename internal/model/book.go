package model

// Book represents one pre-filtered catalog record supplied by the search UI.
// Records are numbered 1..N in the order given; generated answers cite them
// by that position.
type Book struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Title        string `json:"title" yaml:"title"`
	Author       string `json:"author,omitempty" yaml:"author,omitempty"`
	Year         int    `json:"year,omitempty" yaml:"year,omitempty"`
	Language     string `json:"language,omitempty" yaml:"language,omitempty"`
	Summary      string `json:"summary,omitempty" yaml:"summary,omitempty"`
	Availability string `json:"availability,omitempty" yaml:"availability,omitempty"`
	Branch       string `json:"branch,omitempty" yaml:"branch,omitempty"`
}
