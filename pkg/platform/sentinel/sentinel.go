package sentinel

import "errors"

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// and the contract service translates them into domain errors:
// - ErrNotFound: the key has never been written
// - ErrConflict: a write-once record already exists
// - ErrReadOnly: a write was attempted inside a read-only view
// - ErrUnavailable: the backing store could not be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrReadOnly    = errors.New("read-only view")
	ErrUnavailable = errors.New("unavailable")
)
