package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rezonia/cfdi-processor/internal/logger"
)

const (
	requestIDKey    = "request_id"
	requestLogKey   = "request_log"
	requestIDHeader = "X-Request-ID"
)

// requestID propagates the caller's X-Request-ID or assigns a new one, and
// attaches a logger carrying it to the context.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Set(requestLogKey, logger.WithRequestID(id).With().Str("component", "server").Logger())
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// requestLog returns the request-scoped logger
func requestLog(c *gin.Context) zerolog.Logger {
	if l, ok := c.Get(requestLogKey); ok {
		if log, ok := l.(zerolog.Logger); ok {
			return log
		}
	}
	return logger.WithComponent("server")
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := requestLog(c)
		event := log.Info()
		if c.Writer.Status() >= 500 {
			event = log.Error()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Int("size", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
