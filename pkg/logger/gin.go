package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"
	ginLoggerKey    = "logger"
)

// Middleware assigns a request id, installs a request-scoped logger and logs
// one line per request. Requests to quiet paths (probes, scrapes) are only
// logged when they fail.
func Middleware(l *slog.Logger, quiet ...string) gin.HandlerFunc {
	quietSet := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietSet[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(headerRequestID, rid)
		set(c, l.With("request_id", rid))

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		status := c.Writer.Status()
		if _, ok := quietSet[path]; ok && status < 400 {
			return
		}

		// The handler chain may have enriched the logger.
		reqLogger := FromGin(c)
		attrs := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case len(c.Errors) > 0:
			reqLogger.Error("request", append(attrs, "errors", c.Errors.String())...)
		case status >= 500:
			reqLogger.Error("request", attrs...)
		case status >= 400:
			reqLogger.Warn("request", attrs...)
		default:
			reqLogger.Info("request", attrs...)
		}
	}
}

// Enrich adds attributes to the request-scoped logger, e.g. the caller
// identity once authentication succeeded.
func Enrich(c *gin.Context, args ...any) {
	set(c, FromGin(c).With(args...))
}

func set(c *gin.Context, l *slog.Logger) {
	c.Set(ginLoggerKey, l)
	c.Request = c.Request.WithContext(With(c.Request.Context(), l))
}

// FromGin pulls the request-scoped logger from Gin context.
func FromGin(c *gin.Context) *slog.Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if l, ok := v.(*slog.Logger); ok && l != nil {
			return l
		}
	}
	return slog.Default()
}
