package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/esiagate/esiagate/internal/config"
	"github.com/esiagate/esiagate/internal/metrics"
	"github.com/esiagate/esiagate/internal/utils"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type BootstrapApp struct {
	config   config.Config
	registry *prometheus.Registry
	services Services
}

func NewBootstrapApp(config config.Config) *BootstrapApp {
	return &BootstrapApp{
		config: config,
	}
}

// Build wires the database, services and routes without starting the listener
func (app *BootstrapApp) Build() (*gin.Engine, error) {
	// Secrets
	clientSecret, err := utils.GetSecret(app.config.ESIA.ClientSecret, app.config.ESIA.ClientSecretFile)

	if err != nil {
		return nil, fmt.Errorf("failed to load esia client secret: %w", err)
	}

	dsn, err := utils.GetSecret(app.config.Database.DSN, app.config.Database.DSNFile)

	if err != nil {
		return nil, fmt.Errorf("failed to load database dsn: %w", err)
	}

	app.config.ESIA.ClientSecret = clientSecret
	app.config.ESIA.ClientSecretFile = ""
	app.config.Database.DSN = dsn
	app.config.Database.DSNFile = ""

	if app.config.ESIA.ClientID == "" {
		tlog.App.Warn().Msg("No ESIA client id configured, callers must pass client_id on authorize")
	}

	if app.config.ESIA.ClientSecret == "" {
		tlog.App.Warn().Msg("No ESIA client secret configured")
	}

	if app.config.Server.Prefix == "" {
		return nil, errors.New("server prefix must not be empty")
	}

	tlog.App.Trace().Interface("config", app.config).Msg("Config dump")

	app.registry = metrics.NewRegistry()

	// Database
	db, err := app.setupDatabase()

	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	// Services
	services, err := app.initServices(db)

	if err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.services = services

	// Router
	router, err := app.setupRouter()

	if err != nil {
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	return router, nil
}

func (app *BootstrapApp) Setup() error {
	router, err := app.Build()

	if err != nil {
		return err
	}

	address := fmt.Sprintf("%s:%d", app.config.Server.Address, app.config.Server.Port)
	tlog.App.Info().Str("address", address).Str("prefix", app.config.Server.Prefix).Dur("provider_timeout", app.providerTimeout()).Msg("Starting server")

	if err := router.Run(address); err != nil {
		tlog.App.Fatal().Err(err).Msg("Failed to start server")
	}

	return nil
}

func (app *BootstrapApp) providerTimeout() time.Duration {
	return time.Duration(app.config.ESIA.Timeout) * time.Second
}
