// Package logger holds the process-wide logrus logger used by arbor.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

func init() {
	Logger = New(os.Stderr)
}

// New returns a logger writing text records to out at info level.
// Results go to stdout, so the default logger writes to stderr.
func New(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(textFormatter())
	return l
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// SetLevel sets the logging level. Unknown names fall back to info.
func SetLevel(level string) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil || parsed > logrus.DebugLevel {
		parsed = logrus.InfoLevel
	}
	Logger.SetLevel(parsed)
}

// SetFormat switches between "text" and "json" records.
func SetFormat(format string) {
	if format == "json" {
		Logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	Logger.SetFormatter(textFormatter())
}

// SetQuiet disables all logging except errors
func SetQuiet() {
	Logger.SetLevel(logrus.ErrorLevel)
}

// SetVerbose enables debug logging
func SetVerbose() {
	Logger.SetLevel(logrus.DebugLevel)
}
