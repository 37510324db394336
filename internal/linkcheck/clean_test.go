package linkcheck

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
		desc  string
	}{
		{"https://wam.ae/foo", "https://wam.ae/foo", "valid URL passes through"},
		{"  https://wam.ae/foo  ", "https://wam.ae/foo", "whitespace trimmed"},
		{"https%3A%2F%2Fwam.ae%2Ffoo", "https://wam.ae/foo", "percent-encoded URL decoded"},
		{"not a url", "not a url", "unsalvageable input returned trimmed"},
		{"  not a url  ", "not a url", "unsalvageable input still trimmed"},
		{"", "", "empty input"},
	}

	for _, tt := range tests {
		if got := Clean(tt.input); got != tt.want {
			t.Errorf("%s: Clean(%q) = %q, want %q", tt.desc, tt.input, got, tt.want)
		}
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"https://wam.ae/foo",
		"https%3A%2F%2Fwam.ae%2Ffoo",
		"not a url",
		"  spaced  ",
		"ftp://wam.ae/foo",
		"",
	}

	for _, input := range inputs {
		once := Clean(input)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://wam.ae/foo", true},
		{"http://wam.ae", true},
		{"https://a.b", true},  // hostname "a.b" is 3 chars
		{"https://ab", false},  // hostname too short
		{"ftp://wam.ae", false},
		{"wam.ae/foo", false}, // not absolute
		{"not a url", false},
		{"", false},
		{"https://", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.url); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsAllowedDomain(t *testing.T) {
	tests := []struct {
		url    string
		suffix string
		want   bool
	}{
		{"https://wam.ae/foo", ".ae", true},
		{"https://WAM.AE/foo", ".ae", true}, // case-insensitive
		{"https://news.wam.ae/x", ".ae", true},
		{"https://example.com/bar", ".ae", false},
		{"https://wam.ae.evil.com/x", ".ae", false},
		{"https://wam.ae", "", false},
		{"not a url", ".ae", false},
	}

	for _, tt := range tests {
		if got := IsAllowedDomain(tt.url, tt.suffix); got != tt.want {
			t.Errorf("IsAllowedDomain(%q, %q) = %v, want %v", tt.url, tt.suffix, got, tt.want)
		}
	}
}
