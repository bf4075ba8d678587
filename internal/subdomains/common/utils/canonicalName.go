package utils

import "strings"

// CanonicalHost returns a host name in canonical form:
// - Lowercased
// - Trimmed of surrounding whitespace
// - No trailing dots (the DNS root label carries no meaning for extraction)
func CanonicalHost(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.TrimRight(name, ".")
}

// TrimLeadingDot removes exactly one leading '.'; a label may not begin with a separator.
func TrimLeadingDot(name string) string {
	return strings.TrimPrefix(name, ".")
}
