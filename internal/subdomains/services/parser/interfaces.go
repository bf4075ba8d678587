package parser

// HostExtractor interprets a token as a URI and returns its host.
// ok is false when the token is not a URI or the host is empty.
type HostExtractor interface {
	Host(raw string) (host string, ok bool)
}

// Segmenter returns the registrable domain (public suffix plus one label) of a host.
// ok is false when the host has no recognizable public suffix or is malformed.
type Segmenter interface {
	Segment(host string) (registrable string, ok bool)
}
