package services

import "errors"

var (
	// validation
	ErrValidation        = errors.New("validation error")
	ErrInvalidRegistrant = errors.New("invalid registrant")

	// conflict
	ErrEmailTaken = errors.New("email already registered")

	// not found
	ErrAccountNotFound = errors.New("account not found")
	ErrDeviceNotFound  = errors.New("device not found")
	ErrUTMLinkNotFound = errors.New("utm link not found")
	ErrNoAccounts      = errors.New("no accounts for registrant")

	// auth
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbidden          = errors.New("registrant does not own this account")
)
