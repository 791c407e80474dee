package utils

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	InfoLogger  *logrus.Logger
	ErrorLogger *logrus.Logger

	defaultLoggerOnce sync.Once
)

// InitLogger sets up the info and error loggers. Production uses JSON
// output, everything else the human readable text formatter. Call it before
// any goroutine logs.
func InitLogger(env string) {
	InfoLogger = logrus.New()
	ErrorLogger = logrus.New()

	InfoLogger.SetOutput(os.Stdout)
	ErrorLogger.SetOutput(os.Stderr)

	var formatter logrus.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	if env == "production" {
		formatter = &logrus.JSONFormatter{}
	}
	InfoLogger.SetFormatter(formatter)
	ErrorLogger.SetFormatter(formatter)

	InfoLogger.SetLevel(logrus.InfoLevel)
	ErrorLogger.SetLevel(logrus.ErrorLevel)
}

// Logger returns the info logger, initialising a development logger when
// nothing has been configured yet (tests, tools).
func Logger() *logrus.Logger {
	initDefaultLogger()
	return InfoLogger
}

// ErrLogger is Logger for the error logger.
func ErrLogger() *logrus.Logger {
	initDefaultLogger()
	return ErrorLogger
}

func initDefaultLogger() {
	defaultLoggerOnce.Do(func() {
		if InfoLogger == nil || ErrorLogger == nil {
			InitLogger("development")
		}
	})
}
