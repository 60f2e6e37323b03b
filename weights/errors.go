package weights

import "errors"

// ErrPersistFailed indicates the weights were applied in memory but could not
// be written to the persistent store.
var ErrPersistFailed = errors.New("failed to persist model weights")
