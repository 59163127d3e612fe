package simulate

import "errors"

// Sentinel kinds for simulation errors.
var (
	ErrConfig       = errors.New("invalid simulation config")
	ErrUnhealthy    = errors.New("oracle is not healthy")
	ErrUnexpected   = errors.New("unexpected response")
	ErrVerification = errors.New("verification failed")
)
