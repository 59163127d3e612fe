package ledger

import "time"

// Option configures a FileLedger.
type Option func(*FileLedger)

// WithClock replaces the time source used for entries logged without a
// timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *FileLedger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithCorrectBand sets the relative error within which a resolved prediction
// counts as correct. Values outside (0,1] are ignored.
func WithCorrectBand(band float64) Option {
	return func(l *FileLedger) {
		if band > 0 && band <= 1 {
			l.band = band
		}
	}
}
