package repository

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrNotFound     = errors.New("horse not found")
	ErrInvalidLimit = errors.New("invalid limit")
	ErrInvalidValue = errors.New("valuation must be a finite, non-negative number")
	ErrSelfParent   = errors.New("horse cannot be its own parent")
)
