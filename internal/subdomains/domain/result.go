package domain

import "strings"

// ParseResult is the outcome of scanning one input string for a domain name.
// Pure value type; it is never modified after construction.
type ParseResult struct {
	Input             string   // exact input supplied by the caller, untouched
	Matched           bool     // true if a registrable domain was found
	Host              string   // canonical host that matched, e.g. "www.example.co.uk"
	RegistrableDomain string   // public-suffix aware answer, e.g. "example.co.uk"
	RootDomain        string   // SLD + "." + TLD, e.g. "co.uk"
	TLD               string   // rightmost label
	SLD               string   // second-rightmost label
	Labels            []string // every label of Host, left to right
	LabelCount        int
}

// UnmatchedResult returns the result for an input that contains no domain name.
func UnmatchedResult(input string) ParseResult {
	return ParseResult{Input: input}
}

// NewMatchedResult decomposes host into its labels. registrable is the segmenter's
// answer for host. It returns false when host has fewer than two non-empty labels.
func NewMatchedResult(input, host, registrable string) (ParseResult, bool) {
	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return ParseResult{}, false
	}
	for _, l := range labels {
		if l == "" {
			return ParseResult{}, false
		}
	}
	tld := labels[len(labels)-1]
	sld := labels[len(labels)-2]
	return ParseResult{
		Input:             input,
		Matched:           true,
		Host:              host,
		RegistrableDomain: registrable,
		RootDomain:        sld + "." + tld,
		TLD:               tld,
		SLD:               sld,
		Labels:            labels,
		LabelCount:        len(labels),
	}, true
}

// Subdomains returns the labels left of the SLD, e.g. ["www"] for "www.example.com".
func (r ParseResult) Subdomains() []string {
	if r.LabelCount <= 2 {
		return nil
	}
	out := make([]string, r.LabelCount-2)
	copy(out, r.Labels[:r.LabelCount-2])
	return out
}

// LabelsCopy returns a copy of Labels that the caller may modify freely.
func (r ParseResult) LabelsCopy() []string {
	if len(r.Labels) == 0 {
		return []string{}
	}
	out := make([]string, len(r.Labels))
	copy(out, r.Labels)
	return out
}
