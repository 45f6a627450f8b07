// Package log configures the process-wide logrus logger and hands out component-scoped entries.
package log

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Options controls where and how log records are written.
type Options struct {
	Level string
	JSON  bool
	// File, when set, receives records in append mode instead of stderr.
	File string
}

// Setup applies opts to the standard logrus logger.
func Setup(fs afero.Fs, opts Options) error {
	var out io.Writer = os.Stderr
	if opts.File != "" {
		f, err := fs.OpenFile(opts.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = f
	}
	logrus.SetOutput(out)

	if opts.JSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)

	return nil
}

// WithComponent returns an entry tagged with the given component name.
func WithComponent(component string) *logrus.Entry {
	return logrus.WithField("component", component)
}
