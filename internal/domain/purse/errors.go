package purse

import "errors"

// Input errors.
var (
	ErrNegativePurse  = errors.New("gross purse must not be negative")
	ErrInvalidPlacing = errors.New("placing must be at least 1")
)
