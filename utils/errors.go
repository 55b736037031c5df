package utils

import "errors"

var (
	ErrEmptyOrigin    = errors.New("origin cannot be empty")
	ErrInvalidOrigin  = errors.New("invalid origin format")
	ErrInvalidScheme  = errors.New("origin scheme must be http or https")
	ErrEmptyHost      = errors.New("origin host cannot be empty")
	ErrEmptyHostname  = errors.New("hostname cannot be empty")
)
