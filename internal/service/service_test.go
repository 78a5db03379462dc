package service_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/esiagate/esiagate/internal/esiatest"
	"github.com/esiagate/esiagate/internal/service"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"gorm.io/gorm"
	"gotest.tools/v3/assert"
)

const testRedirectURI = "https://app.example/callback"

type testEnv struct {
	db            *gorm.DB
	esia          *esiatest.Server
	esiaService   *service.ESIAService
	authorization *service.AuthorizationService
	reconcile     *service.ReconcileService
	users         *service.UserService
	orgs          *service.OrganizationService
	auth          *service.AuthService
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		Driver:       service.DriverSQLite,
		DatabasePath: filepath.Join(t.TempDir(), "esiagate.db"),
	})

	err := databaseService.Init()
	assert.NilError(t, err)

	db := databaseService.GetDatabase()

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	tlog.NewSimpleLogger().Init()

	env := &testEnv{
		db:   newTestDB(t),
		esia: esiatest.NewServer(t),
	}

	env.esiaService = service.NewESIAService(service.ESIAServiceConfig{
		BaseURL:        env.esia.URL,
		ClientID:       "test-client",
		ClientSecret:   "test-secret",
		RedirectURI:    testRedirectURI,
		UserAgent:      "esiagate-test",
		Timeout:        5 * time.Second,
		UserScope:      "openid fullname",
		OrgScope:       "usr_org",
		ScopeNamespace: "http://esia.gosuslugi.ru/",
	})
	assert.NilError(t, env.esiaService.Init())

	env.authorization = service.NewAuthorizationService(service.AuthorizationServiceConfig{
		ClientID:         "test-client",
		RedirectURI:      testRedirectURI,
		DefaultScope:     "openid",
		ScopeNamespace:   "http://esia.gosuslugi.ru/",
		AllowedScopes:    []string{"openid", "fullname", "usr_org", "org_grps"},
		AllowedProviders: []string{"esia_oauth", "ebs_oauth"},
	}, env.db, env.esiaService)
	assert.NilError(t, env.authorization.Init())

	env.reconcile = service.NewReconcileService(env.db)
	env.users = service.NewUserService(env.db)
	env.orgs = service.NewOrganizationService(env.db)
	env.auth = service.NewAuthService(env.esiaService, env.reconcile, env.users)

	return env
}
