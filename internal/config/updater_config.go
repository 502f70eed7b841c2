package config

import (
	"strconv"
	"time"
)

type UpdaterConfig interface {
	GetBulkWorkers() int
	GetProductTimeout() time.Duration
	GetStateTTL() time.Duration
}

type Updater struct{}

var _ UpdaterConfig = Updater{}

// GetBulkWorkers bounds the number of concurrent product mutations per batch.
func (Updater) GetBulkWorkers() int {
	if v, err := strconv.Atoi(GetEnv("BULK_WORKERS", "4")); err == nil && v > 0 {
		return v
	}
	return 4
}

// GetProductTimeout caps a single product mutation, strategy chain included.
func (Updater) GetProductTimeout() time.Duration {
	if v, err := time.ParseDuration(GetEnv("PRODUCT_TIMEOUT", "30s")); err == nil && v > 0 {
		return v
	}
	return 30 * time.Second
}

// GetStateTTL is how long an abandoned OAuth state entry survives before the
// registry evicts it.
func (Updater) GetStateTTL() time.Duration {
	if v, err := time.ParseDuration(GetEnv("STATE_TTL", "15m")); err == nil && v > 0 {
		return v
	}
	return 15 * time.Minute
}
