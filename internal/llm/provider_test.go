package llm

import (
	"strings"
	"testing"

	"github.com/maktabalabs/maktaba/internal/model"
)

func TestBuildPrompt(t *testing.T) {
	books := []model.Book{
		{Title: "Tales of the Gulf", Author: "A. Salem", Year: 1998, Summary: "Folk stories."},
		{Title: "Pearl Diving", Author: "M. Khalid", Language: "Arabic"},
	}

	prompt := BuildPrompt("What books cover local folklore?", books)

	if !strings.Contains(prompt, "[1] through [2]") {
		t.Error("Prompt should state the valid citation range")
	}
	for _, want := range []string{
		"=== RECORD 1 ===",
		"=== END RECORD 1 ===",
		"=== RECORD 2 ===",
		"=== END RECORD 2 ===",
		"Title: Tales of the Gulf",
		"Author: M. Khalid",
		"Language: Arabic",
		"Question: What books cover local folklore?",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}

	// Empty fields are omitted, not rendered blank
	if strings.Contains(prompt, "Language: \n") || strings.Contains(prompt, "Year: 0") {
		t.Error("Prompt should omit empty record fields")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		apiKey   string
		wantNil  bool
		wantErr  bool
	}{
		{"", "", true, false},
		{"openai", "key", false, false},
		{"anthropic", "key", false, false},
		{"claude", "key", false, false},
		{"openai", "", true, true}, // missing key
		{"gemini", "key", true, true},
	}

	for _, tt := range tests {
		cfg := model.LLMConfig{Provider: tt.provider, APIKey: tt.apiKey}
		p, err := NewProvider(cfg)

		if (err != nil) != tt.wantErr {
			t.Errorf("NewProvider(%q): error = %v, wantErr %v", tt.provider, err, tt.wantErr)
		}
		if (p == nil) != tt.wantNil {
			t.Errorf("NewProvider(%q): provider nil = %v, want %v", tt.provider, p == nil, tt.wantNil)
		}
	}
}
