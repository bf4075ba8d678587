package parser

import (
	"errors"
	"fmt"

	"github.com/haukened/subdomains/internal/subdomains/common/log"
	"github.com/haukened/subdomains/internal/subdomains/common/utils"
	"github.com/haukened/subdomains/internal/subdomains/domain"
)

// Parser runs the extraction pipeline: tokenize, coerce each token to a host,
// segment it, and build the result from the first host that segments.
// A Parser holds no mutable state and is safe for concurrent use.
type Parser struct {
	hosts     HostExtractor
	segmenter Segmenter
	logger    log.Logger
}

type Options struct {
	HostExtractor HostExtractor
	Segmenter     Segmenter
	Logger        log.Logger
}

var (
	ErrNoHostExtractor = errors.New("parser: host extractor is required")
	ErrNoSegmenter     = errors.New("parser: segmenter is required")
)

func New(opts Options) (*Parser, error) {
	if opts.HostExtractor == nil {
		return nil, ErrNoHostExtractor
	}
	if opts.Segmenter == nil {
		return nil, ErrNoSegmenter
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Parser{
		hosts:     opts.HostExtractor,
		segmenter: opts.Segmenter,
		logger:    logger,
	}, nil
}

// Parse returns the first domain found in input. It never fails; callers check
// Matched on the result. Punctuation wrapped around a token ("(example.com)",
// "example.com,") is ignored.
func (p *Parser) Parse(input string) domain.ParseResult {
	index := 0
	for token := range Tokens(input) {
		index++
		host := utils.CanonicalHost(utils.TrimLeadingDot(p.coerce(utils.TrimEnclosing(token))))

		registrable, ok := p.segment(host)
		if !ok {
			p.logger.Debug(map[string]any{"index": index, "token": token, "host": host}, "token_skip_segment")
			continue
		}

		res, ok := domain.NewMatchedResult(input, host, registrable)
		if !ok {
			p.logger.Debug(map[string]any{"index": index, "token": token, "host": host}, "token_skip_labels")
			continue
		}
		p.logger.Debug(map[string]any{"index": index, "host": host, "root_domain": res.RootDomain}, "token_match")
		return res
	}
	return domain.UnmatchedResult(input)
}

// ParseStrict is Parse, but reports a *domain.ParseError (wrapping
// domain.ErrNoDomainFound) when nothing matched.
func (p *Parser) ParseStrict(input string) (domain.ParseResult, error) {
	res := p.Parse(input)
	if !res.Matched {
		return res, &domain.ParseError{Input: input}
	}
	return res, nil
}

// ParseAny is the entry point for untyped boundaries such as decoded JSON.
// Text ([]byte or string) is parsed; any other value is rejected as unmatched.
func (p *Parser) ParseAny(v any) domain.ParseResult {
	switch s := v.(type) {
	case string:
		return p.Parse(s)
	case []byte:
		return p.Parse(string(s))
	case nil:
		return domain.UnmatchedResult("")
	default:
		p.logger.Debug(map[string]any{"type": fmt.Sprintf("%T", v)}, "input_not_text")
		return domain.UnmatchedResult("")
	}
}

// coerce returns the token's URI host, or the token itself when it does not
// parse as a URI with a host.
func (p *Parser) coerce(token string) (host string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn(map[string]any{"token": token, "panic": fmt.Sprint(r)}, "host_extractor_panic")
			host = token
		}
	}()
	if h, ok := p.hosts.Host(token); ok && h != "" {
		return h
	}
	return token
}

func (p *Parser) segment(host string) (registrable string, ok bool) {
	if host == "" {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn(map[string]any{"host": host, "panic": fmt.Sprint(r)}, "segmenter_panic")
			registrable, ok = "", false
		}
	}()
	registrable, ok = p.segmenter.Segment(host)
	if registrable == "" {
		return "", false
	}
	return registrable, ok
}
