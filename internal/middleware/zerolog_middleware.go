package middleware

import (
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type ZerologMiddlewareConfig struct {
	// SkipPaths are logged at debug level only, matched as "METHOD /path" prefixes
	SkipPaths []string
}

type ZerologMiddleware struct {
	config ZerologMiddlewareConfig
}

func NewZerologMiddleware(config ZerologMiddlewareConfig) *ZerologMiddleware {
	return &ZerologMiddleware{
		config: config,
	}
}

func (m *ZerologMiddleware) Init() error {
	return nil
}

func (m *ZerologMiddleware) logPath(path string) bool {
	for _, prefix := range m.config.SkipPaths {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	return true
}

func (m *ZerologMiddleware) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tStart := time.Now()

		c.Next()

		code := c.Writer.Status()
		method := c.Request.Method
		path := c.Request.URL.Path

		var event *zerolog.Event

		switch {
		case !m.logPath(method + " " + path):
			event = tlog.HTTP.Debug()
		case code >= 500:
			event = tlog.HTTP.Error()
		case code >= 400:
			event = tlog.HTTP.Warn()
		default:
			event = tlog.HTTP.Info()
		}

		event.
			Str("request_id", GetRequestID(c)).
			Str("method", method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", code).
			Str("latency", time.Since(tStart).String()).
			Msg("Request")
	}
}
