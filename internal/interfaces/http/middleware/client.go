// Package middleware provides the gin middleware of the pendency API.
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/pendencias/backend/internal/infrastructure/logger"
)

// Request headers understood by the API
const (
	HeaderRequestID = "X-Request-ID"
	HeaderClientID  = "X-Client-ID"
)

// Gin context keys
const (
	ContextKeyRequestID    = logger.GinRequestIDKey
	ContextKeyClientID     = logger.GinClientIDKey
	ContextKeyHistoryOwner = "history_owner"
)

// Header length limits
const (
	MaxRequestIDLength = 128
	MaxClientIDLength  = 128
)

// ClientIdentity resolves who is calling. A valid X-Client-ID header is the
// client id and the history owner; without it the history is scoped to the
// client IP and the client id stays empty.
func ClientIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(HeaderClientID)
		if isSafeHeaderValue(clientID, MaxClientIDLength) {
			c.Set(ContextKeyClientID, clientID)
			c.Set(ContextKeyHistoryOwner, "client:"+clientID)
		} else {
			c.Set(ContextKeyHistoryOwner, "ip:"+c.ClientIP())
		}
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(ContextKeyRequestID)
}

// GetClientID returns the client id set by ClientIdentity, or ""
func GetClientID(c *gin.Context) string {
	return c.GetString(ContextKeyClientID)
}

// GetHistoryOwner returns the history owner set by ClientIdentity. Without
// that middleware it falls back to the client IP.
func GetHistoryOwner(c *gin.Context) string {
	if owner := c.GetString(ContextKeyHistoryOwner); owner != "" {
		return owner
	}
	return "ip:" + c.ClientIP()
}
