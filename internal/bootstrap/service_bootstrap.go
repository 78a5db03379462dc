package bootstrap

import (
	"github.com/esiagate/esiagate/internal/config"
	"github.com/esiagate/esiagate/internal/metrics"
	"github.com/esiagate/esiagate/internal/service"

	"gorm.io/gorm"
)

type Services struct {
	esiaService          *service.ESIAService
	authorizationService *service.AuthorizationService
	reconcileService     *service.ReconcileService
	userService          *service.UserService
	organizationService  *service.OrganizationService
	authService          *service.AuthService
	authMetrics          *metrics.AuthMetrics
}

func (app *BootstrapApp) initServices(db *gorm.DB) (Services, error) {
	services := Services{}

	esiaService := service.NewESIAService(service.ESIAServiceConfig{
		BaseURL:        app.config.ESIA.BaseURL,
		ClientID:       app.config.ESIA.ClientID,
		ClientSecret:   app.config.ESIA.ClientSecret,
		RedirectURI:    app.config.ESIA.RedirectURI,
		UserAgent:      app.config.ESIA.UserAgent,
		Timeout:        app.providerTimeout(),
		UserScope:      app.config.ESIA.UserScope,
		OrgScope:       app.config.ESIA.OrgScope,
		ScopeNamespace: app.config.ESIA.ScopeNamespace,
	})

	err := esiaService.Init()

	if err != nil {
		return Services{}, err
	}

	services.esiaService = esiaService

	authorizationService := service.NewAuthorizationService(service.AuthorizationServiceConfig{
		ClientID:         app.config.ESIA.ClientID,
		RedirectURI:      app.config.ESIA.RedirectURI,
		DefaultScope:     app.config.ESIA.DefaultScope,
		ScopeNamespace:   app.config.ESIA.ScopeNamespace,
		AllowedScopes:    app.config.ESIA.AllowedScopes,
		AllowedProviders: config.AllowedProviders,
	}, db, esiaService)

	err = authorizationService.Init()

	if err != nil {
		return Services{}, err
	}

	services.authorizationService = authorizationService
	services.reconcileService = service.NewReconcileService(db)
	services.userService = service.NewUserService(db)
	services.organizationService = service.NewOrganizationService(db)
	services.authService = service.NewAuthService(esiaService, services.reconcileService, services.userService)

	if app.config.Metrics.Enabled {
		services.authMetrics = metrics.NewAuthMetrics(app.registry)
	}

	return services, nil
}
