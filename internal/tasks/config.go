package tasks

import "time"

// Config sizes the worker pool. Attempts, backoff and retention are set per
// task type in its Config method.
type Config struct {
	Workers int

	// ReleaseAfter hands a claimed task back to the queue when its worker
	// has not finished it in time.
	ReleaseAfter time.Duration

	// CleanupInterval is how often expired task records are purged.
	CleanupInterval time.Duration
}

// DefaultConfig returns the worker settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Workers:         2,
		ReleaseAfter:    45 * time.Minute,
		CleanupInterval: time.Hour,
	}
}
