package domain

import "errors"

// ErrInvalidInput marks requests rejected before any read or write
var ErrInvalidInput = errors.New("invalid input")
