// Package log holds the shared logger of the module. Output is silent
// below the warning level unless the ALSA_DEBUG environment variable is
// set to a true value.
package log

import (
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	once   sync.Once
	logger *logrus.Logger
)

// GetLogger returns the shared logger instance.
func GetLogger() *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		if debug, err := strconv.ParseBool(os.Getenv("ALSA_DEBUG")); err == nil && debug {
			logger.SetLevel(logrus.DebugLevel)
		}
	})
	return logger
}
