package bootstrap

import (
	"fmt"

	"github.com/esiagate/esiagate/internal/controller"
	"github.com/esiagate/esiagate/internal/metrics"
	"github.com/esiagate/esiagate/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (app *BootstrapApp) setupRouter() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(app.config.TrustedProxies) > 0 {
		err := engine.SetTrustedProxies(app.config.TrustedProxies)

		if err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	}

	requestIDMiddleware := middleware.NewRequestIDMiddleware()

	err := requestIDMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize request id middleware: %w", err)
	}

	engine.Use(requestIDMiddleware.Middleware())

	timingMiddleware := middleware.NewTimingMiddleware()

	err = timingMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize timing middleware: %w", err)
	}

	engine.Use(timingMiddleware.Middleware())

	zerologMiddleware := middleware.NewZerologMiddleware(middleware.ZerologMiddlewareConfig{
		SkipPaths: []string{
			"GET " + app.config.Server.Prefix + "/health",
			"HEAD " + app.config.Server.Prefix + "/health",
			"GET " + app.config.Metrics.Path,
		},
	})

	err = zerologMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize zerolog middleware: %w", err)
	}

	engine.Use(zerologMiddleware.Middleware())

	corsMiddleware := middleware.NewCORSMiddleware(middleware.CORSMiddlewareConfig{
		AllowOrigins:     app.config.CORS.AllowOrigins,
		AllowCredentials: app.config.CORS.AllowCredentials,
	})

	err = corsMiddleware.Init()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize cors middleware: %w", err)
	}

	engine.Use(corsMiddleware.Middleware())

	if app.config.Metrics.Enabled {
		engine.Use(metrics.HTTPMiddleware(app.registry))

		metricsController := controller.NewMetricsController(controller.MetricsControllerConfig{
			Path: app.config.Metrics.Path,
		}, engine, app.registry)

		metricsController.SetupRoutes()
	}

	apiRouter := engine.Group(app.config.Server.Prefix)

	authController := controller.NewAuthController(apiRouter, app.services.authorizationService, app.services.authService, app.services.authMetrics)

	authController.SetupRoutes()

	userController := controller.NewUserController(apiRouter, app.services.userService)

	userController.SetupRoutes()

	organizationController := controller.NewOrganizationController(apiRouter, app.services.organizationService, app.services.authService)

	organizationController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)

	healthController.SetupRoutes()

	return engine, nil
}
