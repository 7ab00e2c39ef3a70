// Package metrics provides constants used across metric definitions.
package metrics

import "time"

// Label values for the file outcome counter.
const (
	LabelMigrated        = "migrated"
	LabelAlreadyCurrent  = "already_current"
	LabelCorrupt         = "corrupt"
	LabelUnreadable      = "unreadable"
	LabelTransformFailed = "transform_failed"
	LabelWriteFailed     = "write_failed"
)

// Label values for the entry counter.
const (
	LabelRemapped = "remapped"
	LabelDropped  = "dropped"
	LabelPassed   = "passed"
)

// Histogram bucket configuration constants.
const (
	// BucketStart100us is the starting bucket for 0.1ms histograms (0.1ms to ~400ms range).
	BucketStart100us = 0.0001
	// BucketStart1ms is the starting bucket for 1ms histograms (1ms to ~1s range).
	BucketStart1ms = 0.001

	// BucketFactor2 is the common exponential growth factor of 2 for histogram buckets.
	BucketFactor2 = 2

	// BucketCount12 defines 12 exponential buckets.
	BucketCount12 = 12
	// BucketCount10 defines 10 exponential buckets.
	BucketCount10 = 10
)

// ShutdownTimeout is the timeout for graceful shutdown operations.
const ShutdownTimeout = 5 * time.Second
