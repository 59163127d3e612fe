package dedupe

import "errors"

// ErrUnavailable is returned when the shared replay store cannot be reached.
var ErrUnavailable = errors.New("dedupe store unavailable")
