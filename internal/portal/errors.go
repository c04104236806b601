package portal

import "errors"

// Validation errors returned to the client when a required form field is missing.
var (
	ErrNoFile       = errors.New("no file uploaded")
	ErrNoUpdateFile = errors.New("no file uploaded for update")
	ErrInvalidKey   = errors.New("invalid file key")
)

// isValidation reports whether err is caused by missing client input.
func isValidation(err error) bool {
	return errors.Is(err, ErrNoFile) || errors.Is(err, ErrNoUpdateFile) || errors.Is(err, ErrInvalidKey)
}
