package middleware

import (
	"crypto/subtle"
	"unix_companion/internal/config"
	"unix_companion/internal/util"

	"github.com/gin-gonic/gin"
)

// ShimAuthMiddleware gates the local API behind the shared shim key. An
// empty configured key leaves the API open (debug mode only; LoadConfig
// rejects that combination in release mode).
func ShimAuthMiddleware(cfg *config.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := cfg.Load().Shim.APIKey
		if apiKey == "" {
			c.Next()
			return
		}

		key := c.GetHeader("X-Shim-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
