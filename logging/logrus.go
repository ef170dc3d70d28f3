// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"yellowair/config"
)

// Setup builds a logger for the given environment: human readable text in
// local development, JSON everywhere else.
func Setup(env string) *logrus.Logger {
	return New(env, os.Stdout)
}

func New(env string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	switch env {
	case config.EnvLocal:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	case config.EnvDev:
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.DebugLevel)
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}
