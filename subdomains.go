// Package subdomains finds the first domain name in arbitrary text (a bare host,
// a URL, a sentence, or noise) and splits it into its labels.
//
//	res := subdomains.Parse("The URL is: ftp://ftp.example.com")
//	res.RootDomain // "example.com"
//	res.Labels     // ["ftp", "example", "com"]
package subdomains

import (
	"github.com/haukened/subdomains/internal/subdomains/domain"
	"github.com/haukened/subdomains/internal/subdomains/gateways/psl"
	"github.com/haukened/subdomains/internal/subdomains/gateways/uri"
	"github.com/haukened/subdomains/internal/subdomains/services/parser"
)

const Version = "0.2.0"

// ParseResult is the value returned by Parse and ParseStrict.
type ParseResult = domain.ParseResult

// ParseError is returned by ParseStrict when no domain is found.
type ParseError = domain.ParseError

// ErrNoDomainFound matches any error returned by ParseStrict.
var ErrNoDomainFound = domain.ErrNoDomainFound

var defaultParser = mustDefaultParser()

func mustDefaultParser() *parser.Parser {
	p, err := parser.New(parser.Options{
		HostExtractor: uri.NewExtractor(),
		Segmenter:     psl.NewSegmenter(psl.Options{}),
	})
	if err != nil {
		panic(err)
	}
	return p
}

// Parse returns the first domain name found in s. It never fails; check Matched.
func Parse(s string) ParseResult {
	return defaultParser.Parse(s)
}

// ParseStrict is like Parse but returns a *ParseError when s contains no domain.
func ParseStrict(s string) (ParseResult, error) {
	return defaultParser.ParseStrict(s)
}
