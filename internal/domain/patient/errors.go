package patient

import "errors"

var (
	// ErrNotFound is returned when the referenced patient does not exist.
	ErrNotFound = errors.New("patient not found")
	// ErrConflict is returned when the patient already has an open queue entry.
	ErrConflict = errors.New("patient already queued")
	// ErrNoActor is returned when a mutation arrives without an acting user.
	ErrNoActor = errors.New("acting user required")
	// ErrValidation marks a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
)
