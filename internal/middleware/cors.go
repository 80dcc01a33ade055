package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows the storefront origins to call the API. An empty
// list allows every origin.
func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	if len(allowedOrigins) == 0 {
		return cors.Default()
	}

	cc := cors.DefaultConfig()
	cc.AllowOrigins = allowedOrigins
	cc.AllowMethods = []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	cc.AllowHeaders = append(cc.AllowHeaders, "Authorization", idempotencyHeader, requestIDHeader)
	cc.ExposeHeaders = []string{requestIDHeader, "Idempotent-Replayed"}
	cc.MaxAge = 12 * time.Hour

	return cors.New(cc)
}
