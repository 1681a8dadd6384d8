package app

import (
	"log/slog"
	"os"
)

// NewLogger returns the catalog's slog.Logger. LOG_FORMAT=json selects JSON
// output for aggregated environments; anything else stays human readable.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg != nil && cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler).With(slog.String("service", "catalog"))
}
