// Package logging builds the process-wide hclog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/san-kum/solsim/internal/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the root "solsim" logger. When cfg.File is set the log is
// appended to that file and the returned Closer closes it.
func New(cfg config.LogConfig) (hclog.Logger, io.Closer, error) {
	level := hclog.LevelFromString(cfg.Level)
	if level == hclog.NoLevel {
		level = hclog.Info
	}

	var out io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if dir := filepath.Dir(cfg.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, err
			}
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "solsim",
		Level:      level,
		Output:     out,
		JSONFormat: cfg.JSON,
	})
	return logger, closer, nil
}

// Critical logs an unrecoverable failure. hclog has no level above Error, so
// the severity is carried as a field.
func Critical(l hclog.Logger, msg string, args ...interface{}) {
	l.Error(msg, append([]interface{}{"severity", "critical"}, args...)...)
}
