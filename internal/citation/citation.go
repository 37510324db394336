package citation

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// markerPattern matches bracketed integer citation markers like [3] in
// generated text. Non-overlapping, left-to-right.
var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// Marker is one occurrence of a bracketed integer in generated text.
// The same value may occur more than once when a record is cited repeatedly.
type Marker struct {
	Value   int    `json:"value"`
	Offset  int    `json:"offset"`  // character (rune) offset of the match start
	Literal string `json:"literal"` // the matched substring, brackets included

	// byteOffset indexes the raw string; Offset counts runes so consumers
	// of non-ASCII answers see character positions
	byteOffset int
}

// Classification partitions the markers of a text against the valid
// range [1, upper].
type Classification struct {
	Valid   []Marker `json:"valid"`
	Invalid []Marker `json:"invalid"`
}

// ValidationReport summarizes citation validation for one answer.
type ValidationReport struct {
	Total         int    `json:"total"`
	ValidCount    int    `json:"valid_count"`
	InvalidCount  int    `json:"invalid_count"`
	InvalidValues []int  `json:"invalid_values"` // sorted, deduplicated
	HasOutOfRange bool   `json:"has_out_of_range"`
	CleanText     string `json:"clean_text"` // equals the input when nothing was stripped
}

// ExtractMarkers scans text for bracketed integer markers in text order.
// Duplicate values are all recorded.
func ExtractMarkers(text string) []Marker {
	locs := markerPattern.FindAllStringSubmatchIndex(text, -1)
	markers := make([]Marker, 0, len(locs))

	// Matches arrive in ascending byte order, so the rune offset can be
	// carried forward incrementally
	runeOffset, prevByte := 0, 0
	for _, loc := range locs {
		literal := text[loc[0]:loc[1]]
		value, err := strconv.Atoi(text[loc[2]:loc[3]])
		if err != nil {
			// digits-only capture; overflow is the only way here
			continue
		}
		runeOffset += utf8.RuneCountInString(text[prevByte:loc[0]])
		prevByte = loc[0]

		markers = append(markers, Marker{
			Value:      value,
			Offset:     runeOffset,
			Literal:    literal,
			byteOffset: loc[0],
		})
	}
	return markers
}

// InRange reports whether n is a valid citation id for upper source records.
func InRange(n, upper int) bool {
	return n >= 1 && n <= upper
}

// Classify partitions all markers in text into valid and invalid sets
// against the range [1, upper].
func Classify(text string, upper int) (Classification, error) {
	if upper <= 0 {
		return Classification{}, fmt.Errorf("upper bound must be positive, got %d", upper)
	}

	c := Classification{
		Valid:   []Marker{},
		Invalid: []Marker{},
	}
	for _, m := range ExtractMarkers(text) {
		if InRange(m.Value, upper) {
			c.Valid = append(c.Valid, m)
		} else {
			c.Invalid = append(c.Invalid, m)
		}
	}
	return c, nil
}

// StripInvalid removes every out-of-range marker from text, collapses the
// whitespace each removal leaves behind, and trims the result. Whitespace
// away from the removal sites, paragraph breaks included, is untouched.
func StripInvalid(text string, upper int) (string, error) {
	c, err := Classify(text, upper)
	if err != nil {
		return "", err
	}
	if len(c.Invalid) == 0 {
		return text, nil
	}

	// Remove in reverse text order so earlier offsets stay valid
	out := text
	for i := len(c.Invalid) - 1; i >= 0; i-- {
		m := c.Invalid[i]
		start, end := m.byteOffset, m.byteOffset+len(m.Literal)

		// Swallow the whitespace runs touching the marker and keep the
		// longer of the two, so "a [9] b" joins as "a b" while a marker
		// next to a paragraph break leaves the break intact
		ls := start
		for ls > 0 && isSpaceByte(out[ls-1]) {
			ls--
		}
		re := end
		for re < len(out) && isSpaceByte(out[re]) {
			re++
		}
		sep := out[ls:start]
		if re-end > start-ls {
			sep = out[end:re]
		}

		out = out[:ls] + sep + out[re:]
	}

	return strings.TrimSpace(out), nil
}

// isSpaceByte mirrors the regexp \s class
func isSpaceByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

// DistinctValidIDs returns the unique in-range citation values found in
// text, ascending.
func DistinctValidIDs(text string, upper int) ([]int, error) {
	c, err := Classify(text, upper)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool, len(c.Valid))
	ids := make([]int, 0, len(c.Valid))
	for _, m := range c.Valid {
		if !seen[m.Value] {
			seen[m.Value] = true
			ids = append(ids, m.Value)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// Report runs the full validation pass over text: counts, the sorted list
// of invalid values, and the cleaned text (stripped only when at least one
// invalid marker exists).
func Report(text string, upper int) (*ValidationReport, error) {
	c, err := Classify(text, upper)
	if err != nil {
		return nil, err
	}

	report := &ValidationReport{
		Total:         len(c.Valid) + len(c.Invalid),
		ValidCount:    len(c.Valid),
		InvalidCount:  len(c.Invalid),
		InvalidValues: []int{},
		HasOutOfRange: len(c.Invalid) > 0,
		CleanText:     text,
	}

	if len(c.Invalid) > 0 {
		seen := make(map[int]bool)
		for _, m := range c.Invalid {
			if !seen[m.Value] {
				seen[m.Value] = true
				report.InvalidValues = append(report.InvalidValues, m.Value)
			}
		}
		sort.Ints(report.InvalidValues)

		cleaned, err := StripInvalid(text, upper)
		if err != nil {
			return nil, err
		}
		report.CleanText = cleaned
	}

	return report, nil
}
