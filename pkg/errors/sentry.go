// Package errors provides sentry error tracking helpers.
package errors

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/rsierra/ex-maps/pkg/logger"
)

// SentryConfig holds configuration for sentry integration
type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	SampleRate       float64
	Debug            bool
	ServerName       string
	AttachStacktrace bool
}

// DefaultSentryConfig builds a sentry configuration from the environment
func DefaultSentryConfig(serviceName, environment string) *SentryConfig {
	return &SentryConfig{
		DSN:              os.Getenv("SENTRY_DSN"),
		Environment:      environment,
		Release:          os.Getenv("SENTRY_RELEASE"),
		SampleRate:       getSampleRate(),
		Debug:            os.Getenv("SENTRY_DEBUG") == "true",
		ServerName:       serviceName,
		AttachStacktrace: true,
	}
}

// InitSentry initializes the sentry SDK. An empty DSN is an error so the
// caller can decide whether to continue without error tracking.
func InitSentry(cfg *SentryConfig) error {
	if cfg.DSN == "" {
		return fmt.Errorf("sentry DSN is not configured")
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		SampleRate:       cfg.SampleRate,
		Debug:            cfg.Debug,
		ServerName:       cfg.ServerName,
		AttachStacktrace: cfg.AttachStacktrace,
		BeforeSend: func(event *sentry.Event, hint *sentry.EventHint) *sentry.Event {
			if event.Level == sentry.LevelInfo || event.Level == sentry.LevelDebug {
				return nil
			}
			return event
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize sentry: %w", err)
	}

	return nil
}

// Flush flushes buffered events, waiting up to timeout
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// CaptureError reports an error to sentry
func CaptureError(err error) *sentry.EventID {
	if err == nil {
		return nil
	}
	return sentry.CaptureException(err)
}

// CaptureErrorWithContext reports an error with extra context, tagging the
// event with the request ID when ctx carries one.
func CaptureErrorWithContext(ctx context.Context, err error, extras map[string]interface{}) *sentry.EventID {
	if err == nil {
		return nil
	}

	var eventID *sentry.EventID
	sentry.WithScope(func(scope *sentry.Scope) {
		for key, value := range extras {
			scope.SetExtra(key, value)
		}
		if requestID := logger.RequestIDFromContext(ctx); requestID != "" {
			scope.SetTag("request_id", requestID)
		}
		eventID = sentry.CaptureException(err)
	})
	return eventID
}

func getSampleRate() float64 {
	raw := os.Getenv("SENTRY_SAMPLE_RATE")
	if raw == "" {
		return 1.0
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 || rate > 1 {
		return 1.0
	}
	return rate
}
