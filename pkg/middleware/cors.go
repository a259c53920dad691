package middleware

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/rsierra/ex-maps/pkg/httpclient"
)

// CORS builds a CORS middleware from a comma-separated origin list.
// "*" allows all origins (without credentials, per the CORS spec).
func CORS(origins string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", httpclient.RequestIDHeader)
	cfg.ExposeHeaders = append(cfg.ExposeHeaders, httpclient.RequestIDHeader)
	cfg.MaxAge = 12 * time.Hour

	if origins == "" || origins == "*" {
		cfg.AllowAllOrigins = true
	} else {
		for _, origin := range strings.Split(origins, ",") {
			cfg.AllowOrigins = append(cfg.AllowOrigins, strings.TrimSpace(origin))
		}
		cfg.AllowCredentials = true
	}

	return cors.New(cfg)
}
