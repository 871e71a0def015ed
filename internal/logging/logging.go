package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

// Setup configures the shared logger. Unknown levels fall back to info.
func Setup(level, format string) {
	SetupWithOutput(level, format, os.Stderr)
}

// SetupWithOutput is Setup with an explicit writer, mostly for tests.
func SetupWithOutput(level, format string, out io.Writer) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
	base.SetOutput(out)

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// For returns a logger entry tagged with the component name.
func For(component string) *logrus.Entry {
	return base.WithField("component", component)
}

// Logger exposes the underlying logger for adapters that need a plain writer.
func Logger() *logrus.Logger {
	return base
}
