package envdata

import "errors"

var (
	// ErrTimeout marks a source that missed its fetch deadline.
	ErrTimeout = errors.New("timeout")
	// ErrProviderUnavailable marks a source whose upstream rejected or
	// refused the request entirely.
	ErrProviderUnavailable = errors.New("provider unavailable")
)
