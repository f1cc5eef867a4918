package bootstrap

import (
	"github.com/taskgate/taskgate/internal/service"
)

type Services struct {
	databaseService  *service.DatabaseService
	clientService    *service.ClientService
	workspaceService *service.WorkspaceService
	tokenService     *service.TokenService
	consentService   *service.ConsentService
	authorizeService *service.AuthorizeService
}

func (app *BootstrapApp) initServices() (Services, error) {
	services := Services{}

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: app.config.DatabasePath,
	})

	err := databaseService.Init()

	if err != nil {
		return Services{}, err
	}

	services.databaseService = databaseService

	database := databaseService.GetDatabase()

	services.clientService = service.NewClientService(database)

	services.workspaceService = service.NewWorkspaceService(database)

	services.tokenService = service.NewTokenService(service.TokenServiceConfig{
		AccessTokenExpiry:  app.config.AccessTokenExpiry,
		RefreshTokenExpiry: app.config.RefreshTokenExpiry,
	}, database)

	services.consentService = service.NewConsentService(database, services.tokenService)

	services.authorizeService = service.NewAuthorizeService(service.AuthorizeServiceConfig{
		CodeExpiry: app.config.CodeExpiry,
	}, database, services.clientService, services.consentService, services.tokenService, services.workspaceService)

	return services, nil
}
