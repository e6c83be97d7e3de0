package common

import (
	"log/slog"
	"os"
)

// SetupLogger configures the global logger with the requested level and
// format. "json" is for piping into a log aggregator; anything else falls
// back to the human-readable text handler used on a terminal.
func SetupLogger(level slog.Level, format string) error {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

// LogClassificationRun emits one structured summary line for a completed
// classification run, so every invocation leaves the same shape of audit
// trail regardless of how many reports or rulesets it covered.
func LogClassificationRun(sampleCount, hazardousCount int, rulesetNames []string) {
	slog.Info("classification run complete",
		"samples", sampleCount,
		"hazardous_samples", hazardousCount,
		"rulesets", rulesetNames,
	)
}

// LogCacheEvent logs a run-cache outcome (hit, miss, unavailable, save
// failure) tagged with the content hash it applies to. A nil err logs at
// debug level; a non-nil err logs at warn level, since a cache failure
// degrades performance but never classification correctness.
func LogCacheEvent(event, hash string, err error) {
	if err != nil {
		slog.Warn("run cache "+event, "hash", hash, "error", err)
		return
	}
	slog.Debug("run cache "+event, "hash", hash)
}
