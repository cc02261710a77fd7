// Package sources holds one client per external biomedical data source.
// Each client takes a text query and returns normalized evidence items or
// a typed error. Clients never retry; the aggregator treats a failed
// source as an empty contribution.
package sources

import "fmt"

// ErrorKind classifies source client failures.
type ErrorKind string

const (
	// KindUnavailable covers network failures, non-2xx statuses, and
	// malformed payloads from the upstream service.
	KindUnavailable ErrorKind = "source_unavailable"
)

// Error is a typed source failure carrying the source name for logging.
type Error struct {
	Source string
	Kind   ErrorKind
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// unavailable wraps err as a KindUnavailable Error for source.
func unavailable(source string, err error) *Error {
	return &Error{Source: source, Kind: KindUnavailable, Err: err}
}
