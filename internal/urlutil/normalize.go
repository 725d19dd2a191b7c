// Package urlutil provides URL canonicalization for backlink matching.
//
// Two URLs are considered equal when they match after lowercasing scheme and
// host, dropping the fragment and dropping a single trailing slash. The query
// string is significant.
package urlutil

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidURL is returned when a URL cannot be canonicalized.
// Callers should check with errors.Is().
var ErrInvalidURL = errors.New("invalid URL")

// Normalize returns the canonical form of rawURL: scheme and host lowercased,
// fragment dropped, a single trailing slash dropped, query preserved.
// Only absolute http/https URLs are valid.
func Normalize(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q", ErrInvalidURL, parsed.Scheme)
	}

	host := strings.ToLower(parsed.Host)
	if host == "" {
		return "", fmt.Errorf("%w: missing host in %s", ErrInvalidURL, rawURL)
	}

	path := strings.TrimSuffix(parsed.EscapedPath(), "/")

	canonical := scheme + "://" + host + path
	if parsed.RawQuery != "" {
		canonical += "?" + parsed.RawQuery
	}

	return canonical, nil
}

// Equal reports whether two URLs canonicalize to the same form.
// A malformed URL on either side is never a match.
func Equal(a, b string) bool {
	na, errA := Normalize(a)
	if errA != nil {
		return false
	}

	nb, errB := Normalize(b)
	if errB != nil {
		return false
	}

	return na == nb
}

// ResolveRef resolves href against base, returning an absolute URL.
// Used to turn relative anchor hrefs into absolute URLs before matching.
func ResolveRef(base, href string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: base %s", ErrInvalidURL, base)
	}

	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("%w: href %s", ErrInvalidURL, href)
	}

	return baseURL.ResolveReference(ref).String(), nil
}
