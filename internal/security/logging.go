package security

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// AccessLogMiddleware logs each HTTP request with method, route, status, and
// duration. Paths listed in skipPaths are passed through without logging.
// Server errors are logged at error level so fallback turns stand out.
func AccessLogMiddleware(skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]bool, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = true
	}
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		fields := requestLogFields(c, time.Since(start))
		if c.Writer.Status() >= 500 {
			log.Error("HTTP request", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// requestLogFields builds the key-value pairs for an access log line. Most
// routes here are scoped to a user, so the userId path parameter is attached
// when the matched route carries one.
func requestLogFields(c *gin.Context, duration time.Duration) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"route", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", duration,
		"clientIP", c.ClientIP(),
	}
	if userID := c.Param("userId"); userID != "" {
		fields = append(fields, "userId", userID)
	}
	return fields
}

// AdminAuditMiddleware logs admin API calls. When requireJustification is true,
// admin requests must include a justification via query param (?justification=...)
// or the X-Justification header.
func AdminAuditMiddleware(requireJustification bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/v1/admin") {
			c.Next()
			return
		}

		justification := c.Query("justification")
		if justification == "" {
			justification = c.GetHeader("X-Justification")
		}
		if requireJustification && justification == "" {
			c.AbortWithStatusJSON(400, gin.H{"error": "justification is required"})
			return
		}

		c.Next()

		log.Info("Admin audit",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"clientIP", c.ClientIP(),
			"justification", justification,
		)
	}
}
