package linkcheck

import (
	"net/url"
	"strings"
)

const minHostLength = 3

// Clean normalizes a candidate URL string. It trims whitespace, and if the
// result does not already parse as a valid absolute http(s) URL it tries a
// single percent-decoding pass. Unsalvageable input comes back trimmed but
// otherwise untouched; Clean never fails and is idempotent.
func Clean(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if IsValid(trimmed) {
		return trimmed
	}

	decoded, err := url.QueryUnescape(trimmed)
	if err == nil {
		decoded = strings.TrimSpace(decoded)
		if IsValid(decoded) {
			return decoded
		}
	}

	return trimmed
}

// IsValid reports whether raw parses as an absolute URL with scheme http or
// https and a hostname of at least three characters. Pure syntax check, no
// network access.
func IsValid(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return len(parsed.Hostname()) >= minHostLength
}

// IsAllowedDomain reports whether the URL's hostname, lower-cased, ends
// with the configured suffix (e.g. ".ae").
func IsAllowedDomain(raw, suffix string) bool {
	if suffix == "" {
		return false
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host != "" && strings.HasSuffix(host, strings.ToLower(suffix))
}
