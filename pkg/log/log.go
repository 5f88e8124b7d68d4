package log

import "github.com/sirupsen/logrus"

// New builds the application logger with full timestamps and the requested
// level. An unparseable level falls back to info with a warning.
func New(levelStr string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "15:04:05.000"})
	logger.SetLevel(logrus.InfoLevel)

	if levelStr != "" {
		level, err := logrus.ParseLevel(levelStr)
		if err != nil {
			logger.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
		} else {
			logger.SetLevel(level)
		}
	}
	return logger
}
