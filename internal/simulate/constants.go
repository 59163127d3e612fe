package simulate

import "time"

const (
	minHerd = 2

	// Submitter channel depth per worker.
	workerChannelMultiplier = 2

	maxBackpressureRetries = 5
	backpressureBackoff    = 50 * time.Millisecond
	drainPollInterval      = 100 * time.Millisecond

	simulationProvider = "turf-simulator"
)
