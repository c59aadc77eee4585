// Package logging constructs the shared process logger. Both binaries build
// one logger at startup and hand it to component constructors; nothing logs
// through package-level globals.
package logging

// #region imports
import (
	"fmt"

	"go.uber.org/zap"
)

// #endregion

// #region new

// New returns the process logger. Debug mode switches to the development
// encoder with DebugLevel enabled.
func New(debug bool) (*zap.Logger, error) {
	if debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("build development logger: %w", err)
		}
		return logger, nil
	}

	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// #endregion
