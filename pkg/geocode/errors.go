package geocode

import "errors"

var (
	// ErrEmptyQuery is returned for blank queries; no request is made.
	ErrEmptyQuery = errors.New("geocode: empty query")
	// ErrMissingKey is returned when a key-requiring backend has no key.
	ErrMissingKey = errors.New("geocode: api key required")
	// ErrNoResult is returned when the backend found nothing usable.
	ErrNoResult = errors.New("geocode: no result")
	// ErrUnsupportedProvider is returned for unknown provider tags.
	ErrUnsupportedProvider = errors.New("geocode: unsupported provider")
)

// outcome maps an error to the metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, ErrMissingKey):
		return "missing_key"
	case errors.Is(err, ErrNoResult):
		return "no_result"
	case errors.Is(err, ErrUnsupportedProvider):
		return "unsupported"
	default:
		return "error"
	}
}
