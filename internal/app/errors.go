package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrDuplicate     = errors.New("event already processed")
	ErrUnknownHorse  = errors.New("event refers to an unregistered horse")
	ErrUnknownInjury = errors.New("injury code is not catalogued")
	ErrValuation     = errors.New("valuation model failed")
	ErrWrite         = errors.New("valuation write failed")
)
