package middleware

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
)

// SentryRecovery reports panics to sentry, then re-panics so that gin's
// own recovery middleware (registered before this one) can answer 500.
func SentryRecovery() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic: true,
	})
}
