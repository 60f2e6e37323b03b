package badger

import "errors"

// ErrBackendRequired is returned by repository constructors given a nil backend.
var ErrBackendRequired = errors.New("badger backend is required")
