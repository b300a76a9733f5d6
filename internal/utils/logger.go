package utils

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

// GetLogger returns the shared application logger. The web server and the
// import worker both log JSON to stdout so their lines interleave cleanly
// under one log collector. Level comes from LOG_LEVEL, defaulting to info.
func GetLogger() *logrus.Logger {
	if logger != nil {
		return logger
	}

	logger = logrus.New()

	level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	return logger
}
