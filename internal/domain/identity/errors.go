package identity

import "errors"

var (
	// ErrInvalidCredentials is returned when the username/password pair does
	// not match any user.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameTaken is returned on registration with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrValidation marks a missing or malformed request field.
	ErrValidation = errors.New("validation failed")
)
