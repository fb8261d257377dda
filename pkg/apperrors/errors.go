package apperrors

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrForeignKey         = errors.New("referenced row does not exist")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSort        = errors.New("invalid sort parameter")
	ErrInvalidDocument    = errors.New("invalid document")
	ErrInvalidInput       = errors.New("invalid input")
)
