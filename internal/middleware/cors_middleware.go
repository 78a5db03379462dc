package middleware

import (
	"slices"
	"time"

	"github.com/esiagate/esiagate/internal/config"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type CORSMiddlewareConfig struct {
	AllowOrigins     []string
	AllowCredentials bool
}

type CORSMiddleware struct {
	config CORSMiddlewareConfig
}

func NewCORSMiddleware(config CORSMiddlewareConfig) *CORSMiddleware {
	return &CORSMiddleware{
		config: config,
	}
}

func (m *CORSMiddleware) Init() error {
	return nil
}

func (m *CORSMiddleware) Middleware() gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Content-Length", "Accept", "Authorization", config.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", config.RequestIDHeader, config.ProcessTimeHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(m.config.AllowOrigins) == 0 || slices.Contains(m.config.AllowOrigins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = m.config.AllowOrigins
		cfg.AllowCredentials = m.config.AllowCredentials
	}

	return cors.New(cfg)
}
