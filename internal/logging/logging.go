// Package logging builds the application logger.
package logging

import (
	"go.uber.org/zap"
)

// New returns a configured logger. Debug mode switches to the development
// encoder with debug-level output.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableStacktrace = true
	return cfg.Build()
}
