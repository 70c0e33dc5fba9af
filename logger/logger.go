package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	c "ticket-marketplace-backend/context"

	"github.com/sirupsen/logrus"
)

var logger *logrus.Logger

const CorrelationId = "correlation_id"

var newlines = regexp.MustCompile(`(\n)|(\r\n)`)

func init() {
	logger = logrus.New()
	logger.SetOutput(os.Stdout)
}

// Configure sets the level and output format ("text" or "json").
func Configure(level, format string) error {
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("configure: invalid log level %q: %w", level, err)
	}
	logger.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("configure: unknown log format %q", format)
	}
	return nil
}

// SetOutput redirects log output, mostly useful in tests.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

func entry(ctx context.Context) *logrus.Entry {
	return logger.WithField(CorrelationId, c.GetContextValue(ctx, c.ContextKeyCorrelationID))
}

func WithFields(ctx context.Context, fields map[string]interface{}) *logrus.Entry {
	return entry(ctx).WithFields(logrus.Fields(fields))
}

func Fatalf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Fatalf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Infof(format, args...)
}

func Info(ctx context.Context, msg string) {
	entry(ctx).Info(msg)
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Debug(escapeString(format, args...))
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Error(escapeString(format, args...))
}

// LogExecutionTime is meant to be deferred with the start time of the measured call.
func LogExecutionTime(ctx context.Context, start time.Time, msg string) {
	entry(ctx).WithField("duration", time.Since(start).String()).Debug(msg)
}

func escapeString(format string, args ...interface{}) string {
	return newlines.ReplaceAllString(fmt.Sprintf(format, args...), "\\n ")
}
