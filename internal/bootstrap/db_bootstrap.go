package bootstrap

import (
	"fmt"

	"github.com/esiagate/esiagate/internal/metrics"
	"github.com/esiagate/esiagate/internal/service"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"gorm.io/gorm"
)

func (app *BootstrapApp) setupDatabase() (*gorm.DB, error) {
	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		Driver:         app.config.Database.Driver,
		DatabasePath:   app.config.Database.Path,
		DSN:            app.config.Database.DSN,
		ConnectRetries: app.config.Database.ConnectRetries,
	})

	err := databaseService.Init()

	if err != nil {
		return nil, err
	}

	db := databaseService.GetDatabase()

	if app.config.Metrics.Enabled {
		if err := metrics.RegisterGORMCallbacks(db, app.registry); err != nil {
			return nil, fmt.Errorf("failed to register database metrics: %w", err)
		}
	}

	tlog.App.Debug().Str("driver", app.config.Database.Driver).Msg("Database ready")

	return db, nil
}
