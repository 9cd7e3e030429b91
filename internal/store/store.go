package store

import "errors"

var (
	// ErrNotFound covers both a missing record and one owned by another
	// account; the two cases are intentionally indistinguishable.
	ErrNotFound = errors.New("record not found")

	ErrDuplicateEmail = errors.New("email already registered")
	ErrDuplicateKey   = errors.New("storage key already exists")
	ErrTransformCount = errors.New("at least 3 applied transformations are required")
)

// MinTransformations is the lowest number of applied transformation
// descriptors a persisted image record may carry.
const MinTransformations = 3
