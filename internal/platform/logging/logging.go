package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger: JSON in prod, text elsewhere.
func Setup(env, level string) {
	logrus.SetOutput(os.Stdout)
	if env == "prod" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.WithField("level", level).Warn("unknown log level, using info")
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
