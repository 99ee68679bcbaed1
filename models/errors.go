package models

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("already exists")
	ErrUnauthorized      = errors.New("unauthorized")
)

// ErrBillNotSent reports that a checkout committed but its bill could not be
// delivered. It never means the purchase itself failed.
var ErrBillNotSent = errors.New("bill notification failed")
