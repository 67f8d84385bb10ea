package domain

import "errors"

// Failure classes for a risk lookup. Adapters wrap these with %w so callers
// can classify with errors.Is.
var (
	ErrNetwork          = errors.New("network failure")
	ErrProtocol         = errors.New("protocol failure")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrNoCoverage       = errors.New("no risk index for location")
	ErrPlaceNotFound    = errors.New("no place matches query")
)

// ClassifyError maps a lookup error to a short label for logs and metrics.
func ClassifyError(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNetwork):
		return "network"
	case errors.Is(err, ErrProtocol):
		return "protocol"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed"
	case errors.Is(err, ErrNoCoverage):
		return "no_coverage"
	case errors.Is(err, ErrPlaceNotFound):
		return "not_found"
	default:
		return "unknown"
	}
}
