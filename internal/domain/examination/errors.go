package examination

import "errors"

var (
	// ErrNotFound is returned when a referenced examination, patient,
	// diagnosis or prescription row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on a duplicate symptom or medication triple.
	ErrConflict = errors.New("record already exists")
	// ErrNoActor is returned when a mutation arrives without an acting user.
	// The system never guesses an acting user.
	ErrNoActor = errors.New("acting user required")
	// ErrValidation marks a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
)
