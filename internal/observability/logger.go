package observability

import "github.com/hellominers/statsupdater/internal/logger"

// Package-level cached logger instance.
var log = logger.Global().Module("telemetry")
