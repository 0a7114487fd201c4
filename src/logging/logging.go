package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// Setup configures the process-wide logger. An empty level selects "info".
func Setup(level string, out io.Writer) error {
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	logrus.SetLevel(lvl)
	if out != nil {
		logrus.SetOutput(out)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Component returns a logger entry tagged with the originating component.
func Component(name string) *logrus.Entry {
	return logrus.WithField("component", name)
}
