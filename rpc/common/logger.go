package common

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

// PackageLogger returns a logrus entry tagged with the originating
// component. Every package holds one as a package-level variable.
func PackageLogger(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// ConfigureLogging applies the configured level and a compact formatter to
// the process-wide logger. Called once by the CLI; library users configure
// logrus themselves.
func ConfigureLogging(level string) error {
	parsed, err := parseLogLevel(level)
	if err != nil {
		return err
	}
	logrus.SetLevel(parsed)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return nil
}

// parseLogLevel converts a string level to a logrus.Level.
func parseLogLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warning", "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}
