package domain

import (
	"errors"
	"fmt"
)

// ErrNoDomainFound is returned by strict parsing when no token yields a domain.
var ErrNoDomainFound = errors.New("Unable to parse the string for a domain name")

// ParseError reports which input failed strict parsing.
type ParseError struct {
	Input string
}

func (e *ParseError) Error() string {
	return ErrNoDomainFound.Error()
}

// Unwrap allows errors.Is(err, ErrNoDomainFound).
func (e *ParseError) Unwrap() error {
	return ErrNoDomainFound
}

// Detail returns the message with the offending input quoted, for logs.
func (e *ParseError) Detail() string {
	return fmt.Sprintf("%s: %q", ErrNoDomainFound.Error(), e.Input)
}
