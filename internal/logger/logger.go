// Package logger provides a wrapper around logrus for structured logging.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger creates a new configured logger instance. The environment decides
// the output format: JSON in production, coloured text everywhere else.
func NewLogger(logLevel, environment string) *logrus.Logger {
	log := logrus.New()

	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		log.Warnf("Invalid log level '%s', defaulting to info", logLevel)
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if environment == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return log
}
