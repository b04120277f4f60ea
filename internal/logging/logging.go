// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu   sync.Mutex
	log  *logrus.Logger
	file *os.File
)

// Init initializes the logger with the given configuration, replacing any
// earlier logger and closing its log file. An unparsable level falls back
// to info.
func Init(level, logFile string, console bool) error {
	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	var writers []io.Writer
	if console {
		writers = append(writers, os.Stderr)
	}

	var f *os.File
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return err
		}
		f, err = os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		writers = append(writers, f)
	}

	switch len(writers) {
	case 0:
		l.SetOutput(io.Discard)
	case 1:
		l.SetOutput(writers[0])
	default:
		l.SetOutput(io.MultiWriter(writers...))
	}

	mu.Lock()
	prev := file
	log, file = l, f
	mu.Unlock()

	if prev != nil {
		return prev.Close()
	}
	return nil
}

// Get returns the logger instance, creating a warn-level stderr logger
// if Init has not been called.
func Get() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log = logrus.New()
		log.SetLevel(logrus.WarnLevel)
	}
	return log
}

// WithField returns an entry from the process logger with one field set.
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) {
	Get().Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) {
	Get().Infof(format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) {
	Get().Warnf(format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) {
	Get().Errorf(format, args...)
}
