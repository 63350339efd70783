package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrValidation = errors.New("domain: validation failed")
	ErrNotFound   = errors.New("domain: not found")
	ErrOutOfRange = errors.New("domain: index out of range")
	ErrConflict   = errors.New("domain: conflict")
	ErrIO         = errors.New("domain: storage i/o")
	ErrClosed     = errors.New("domain: board engine closed")
)
