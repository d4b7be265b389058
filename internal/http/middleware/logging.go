// Package middleware contains shared Gin middleware used by the HTTP
// layer.
//
// This file provides structured request logging, a panic-safe recovery
// handler, and a request ID injector:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - Logger() emits structured access logs with request/response metadata
//     (latency, status, sizes), attaches a request-scoped zerolog.Logger,
//     and selects log level by outcome (info/warn/error).
//   - Recovery() converts panics into JSON 500 responses while preserving
//     the correlation ID and emitting a stack trace to logs.
//   - LoggerFrom() retrieves the request-scoped logger so handlers and
//     services can emit enriched logs tied to the request.
//
// Compose RequestID -> Logger -> Recovery so panics and errors include
// the correlation ID and are logged with request context.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// RequestID attaches (or propagates) a correlation identifier per request.
//
// If the incoming request carries X-Request-ID, that value is reused;
// otherwise a new UUIDv4 is generated. The ID is written back to the
// response header and stored in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Logger writes a structured access log for each request and response.
//
// It records method, path (route when available), remote IP, correlation
// ID, user ID (if present in context), request size, response status,
// latency, and bytes written, and stores a request-scoped zerolog.Logger
// in the Gin context (key "logger"). Log level follows the outcome:
// error for 5xx or collected Gin errors, warn for 4xx, info otherwise.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		uid, _ := c.Get("userID")
		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("user_id", asString(uid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("query", truncate(c.Request.URL.RawQuery, maxQueryLogLength)).
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		// Make it available to handlers/services.
		c.Set("logger", &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		ev := l.With().
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", c.Writer.Size()).
			Logger()

		switch {
		case len(c.Errors) > 0:
			ev.Error().Str("errors", c.Errors.String()).Msg("request")
		case status >= 500:
			ev.Error().Msg("request")
		case status >= 400:
			ev.Warn().Msg("request")
		default:
			ev.Info().Msg("request")
		}
	}
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500
// error with the correlation ID.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid, _ := c.Get(requestIDKey)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", asString(rid)).
					Msg("panic recovered")

				// Only write if nothing has been written yet.
				if !c.Writer.Written() {
					c.Header("Content-Type", "application/json")
					c.Header(requestIDHeader, asString(rid))
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"request_id": asString(rid),
						"code":       "internal_error",
						"message":    "internal server error",
					})
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger.
//
// If a logger was not previously attached by Logger(), a fallback logger
// is returned. Callers can safely use the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get("logger"); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// asString converts an arbitrary interface to a string, returning an
// empty string when the value is not a string. Used for context values.
func asString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// truncate returns s unchanged when within max length, otherwise it
// truncates s to max bytes and appends an ellipsis. A max <= 0 disables
// truncation. Operates on bytes, which is acceptable for logging.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
