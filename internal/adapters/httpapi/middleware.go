package httpapi

import (
	"strings"
	"time"

	"tradejournal/internal/ports"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request through the service logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := ports.Fields{
			"method":    c.Request.Method,
			"path":      c.FullPath(),
			"status":    c.Writer.Status(),
			"latencyMs": time.Since(start).Milliseconds(),
		}
		if userID, ok := c.Get(userIDKey); ok {
			fields["userID"] = userID
		}
		if c.Writer.Status() >= 500 {
			s.logger.Warn(c.Request.Context(), "HTTP request failed", fields)
			return
		}
		s.logger.Debug(c.Request.Context(), "HTTP request", fields)
	}
}

// authRequired resolves the bearer credential into a user id. Both the
// "Bearer <jwt>" and "Token <jwt>" schemes are accepted.
func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			s.respondError(c, ports.Unauthenticated("No authorization header found"))
			c.Abort()
			return
		}

		scheme, credential, ok := strings.Cut(header, " ")
		if !ok || (!strings.EqualFold(scheme, "Bearer") && !strings.EqualFold(scheme, "Token")) {
			s.respondError(c, ports.Unauthenticated("Invalid token format. Use 'Bearer <value>'."))
			c.Abort()
			return
		}

		userID, err := s.resolver.Resolve(c.Request.Context(), credential)
		if err != nil {
			s.respondError(c, err)
			c.Abort()
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}
