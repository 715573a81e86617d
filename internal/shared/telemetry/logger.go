package telemetry

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout)
)

func newLogger(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime: "ts",
		},
	})
	return l
}

// SetOutput redirects log lines, returning a func that restores the previous writer.
func SetOutput(out io.Writer) (restore func()) {
	mu.Lock()
	defer mu.Unlock()
	prev := logger.Out
	logger.SetOutput(out)
	return func() {
		mu.Lock()
		defer mu.Unlock()
		logger.SetOutput(prev)
	}
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write(logrus.InfoLevel, msg, fields)
}

// Warn writes a warning-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	write(logrus.WarnLevel, msg, fields)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	write(logrus.ErrorLevel, msg, fields)
}

func write(level logrus.Level, msg string, fields map[string]any) {
	mu.RLock()
	defer mu.RUnlock()
	logger.WithFields(logrus.Fields(fields)).Log(level, msg)
}
