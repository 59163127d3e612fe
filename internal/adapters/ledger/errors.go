package ledger

import "errors"

// Sentinel errors for the prediction ledger.
var (
	ErrStorage         = errors.New("ledger storage failure")
	ErrCorruptEntry    = errors.New("ledger entry is not valid JSON")
	ErrAlreadyResolved = errors.New("prediction already resolved")
	ErrInvalidAgent    = errors.New("agent id is required")
	ErrInvalidValue    = errors.New("value must be a finite number")
)
