package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/parrot/internal/config"
)

func noClose() error { return nil }

// setupLog builds the root logger. With PARROT_LOG_FILE set, logs go to that
// file instead of stderr. The returned closer is never nil.
func setupLog(cfg config.Config, verbose bool) (*log.Logger, func() error, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, noClose, fmt.Errorf("invalid PARROT_LOG_LEVEL: %w", err)
	}
	if verbose {
		level = log.DebugLevel
	}

	var out io.Writer = os.Stderr
	closer := noClose
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil { //nolint:gosec
			return nil, noClose, fmt.Errorf("create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
		if err != nil {
			return nil, noClose, fmt.Errorf("open log file: %w", err)
		}
		out = f
		closer = f.Close
	}

	l := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		Prefix:          "parrot",
		Level:           level,
	})
	log.SetDefault(l)
	return l, closer, nil
}
