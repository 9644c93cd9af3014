// Package logger configures the process-wide logrus logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup applies level and formatter to the standard logrus logger and
// returns an entry tagged with the service name.
func Setup(level string, production bool) *logrus.Entry {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	logrus.SetOutput(os.Stdout)
	logrus.SetLevel(lvl)
	if production {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if err != nil {
		logrus.WithError(err).Warnf("invalid log level %q, using info", level)
	}

	return logrus.WithField("service", "tpos")
}
