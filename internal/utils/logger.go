package utils

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// ConfigureLogger sets up the standard logrus logger: JSON lines on stdout
// with RFC 3339 timestamps.  An unknown level falls back to info and
// is reported once the logger is ready.
func ConfigureLogger(level string) *logrus.Logger {
	l := logrus.StandardLogger()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.SetLevel(logrus.InfoLevel)
		l.WithField("level", level).Warn("unknown LOG_LEVEL, using info")
		return l
	}
	l.SetLevel(lvl)
	return l
}
