// Package psl segments host names against the Public Suffix List.
package psl

import (
	"net"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/haukened/subdomains/internal/subdomains/common/utils"
)

const (
	maxNameLength  = 253
	maxLabelLength = 63
)

type Options struct {
	// AllowUnlistedTLD accepts hosts whose last label is not on the list
	// (e.g. "foo.internal"), treating that label as the suffix.
	AllowUnlistedTLD bool
}

// Segmenter implements parser.Segmenter using golang.org/x/net/publicsuffix.
type Segmenter struct {
	allowUnlisted bool
}

func NewSegmenter(opts Options) *Segmenter {
	return &Segmenter{allowUnlisted: opts.AllowUnlistedTLD}
}

// Segment returns the eTLD+1 of host in ASCII form.
// IP literals, malformed names and bare public suffixes are rejected.
func (s *Segmenter) Segment(host string) (string, bool) {
	name := utils.CanonicalHost(host)
	if name == "" || net.ParseIP(name) != nil {
		return "", false
	}

	ascii, ok := toASCII(name)
	if !ok {
		return "", false
	}

	suffix, icann := publicsuffix.PublicSuffix(ascii)
	if !icann && !strings.Contains(suffix, ".") && !s.allowUnlisted {
		// x/net falls back to the "*" rule for unknown TLDs; reject those
		return "", false
	}

	etld1, err := publicsuffix.EffectiveTLDPlusOne(ascii)
	if err != nil {
		return "", false
	}
	return etld1, true
}

// toASCII validates name and converts non-ASCII names with IDNA lookup rules.
func toASCII(name string) (string, bool) {
	if !isASCII(name) {
		converted, err := idna.Lookup.ToASCII(name)
		if err != nil {
			return "", false
		}
		name = converted
	}
	if !validHostname(name) {
		return "", false
	}
	return name, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// validHostname accepts letters, digits, '-' and '_' in labels of 1..63 bytes.
// A label may not begin or end with '-'. Underscore is allowed for service
// labels such as "_dmarc".
func validHostname(name string) bool {
	if name == "" || len(name) > maxNameLength {
		return false
	}
	for label := range strings.SplitSeq(name, ".") {
		if label == "" || len(label) > maxLabelLength {
			return false
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return false
		}
		for i := 0; i < len(label); i++ {
			c := label[i]
			switch {
			case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
			default:
				return false
			}
		}
	}
	return true
}
