package discovery

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidInput is returned when the supplied URL is empty or cannot be
// turned into an absolute http(s) URL.
var ErrInvalidInput = errors.New("invalid input")

// NormalizeURL trims raw, defaults the scheme to https and parses it.
func NormalizeURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: URL is empty", ErrInvalidInput)
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidInput, raw, err)
	}
	if u.Host == "" || u.Hostname() == "" {
		return nil, fmt.Errorf("%w: %q has no host", ErrInvalidInput, raw)
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Fragment = ""
	return u, nil
}
