// Package uri extracts the host component from URL-shaped tokens.
package uri

import "net/url"

// Extractor implements parser.HostExtractor on top of net/url.
type Extractor struct{}

func NewExtractor() Extractor { return Extractor{} }

// Host returns the host of raw without port or IPv6 brackets.
// ok is false when raw does not parse or carries no authority.
func (Extractor) Host(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := u.Hostname()
	if host == "" {
		return "", false
	}
	return host, true
}
