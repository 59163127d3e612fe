package canonical

import "errors"

// Sentinel errors for canonicalization.
var (
	ErrUnsupportedValue = errors.New("value is not JSON representable")
	ErrMalformedHash    = errors.New("malformed hash")
)
