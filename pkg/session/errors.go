package session

import "errors"

var (
	// ErrNotFound indicates the store holds no live entry for the key.
	// It is a miss, not a failure.
	ErrNotFound = errors.New("session.not_found")

	// ErrMalformedSession indicates stored bytes that do not parse into a
	// session envelope.
	ErrMalformedSession = errors.New("session.malformed")

	// ErrStoreUnavailable indicates a transport or backend failure,
	// including caller cancellation and deadlines.
	ErrStoreUnavailable = errors.New("session.store_unavailable")

	// ErrInvalidConfiguration is returned by Config.Validate and New.
	ErrInvalidConfiguration = errors.New("session.invalid_configuration")

	// ErrReservedKey is returned when a payload operation targets the
	// reserved "cookie" key.
	ErrReservedKey = errors.New("session.reserved_key")

	// ErrInvalidValue indicates a value that cannot be represented as JSON.
	ErrInvalidValue = errors.New("session.invalid_value")

	// ErrIDGeneration indicates the random source failed.
	ErrIDGeneration = errors.New("session.id_generation_failed")
)

// storeUnavailable wraps a backend failure, caller cancellation included, so
// callers can match it with errors.Is(err, ErrStoreUnavailable). Misses and
// parse failures pass through untouched.
func storeUnavailable(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrMalformedSession),
		errors.Is(err, ErrStoreUnavailable):
		return err
	default:
		return errors.Join(ErrStoreUnavailable, err)
	}
}
