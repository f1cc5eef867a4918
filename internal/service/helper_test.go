package service_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/service"

	"gotest.tools/v3/assert"
	"gorm.io/gorm"
)

func newTestDatabase(t *testing.T) *gorm.DB {
	t.Helper()

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: filepath.Join(t.TempDir(), "taskgate.db"),
	})

	err := databaseService.Init()
	assert.NilError(t, err)

	return databaseService.GetDatabase()
}

type testStack struct {
	database   *gorm.DB
	clients    *service.ClientService
	workspaces *service.WorkspaceService
	tokens     *service.TokenService
	consents   *service.ConsentService
	authorize  *service.AuthorizeService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	database := newTestDatabase(t)

	clients := service.NewClientService(database)
	workspaces := service.NewWorkspaceService(database)
	tokens := service.NewTokenService(service.TokenServiceConfig{}, database)
	consents := service.NewConsentService(database, tokens)
	authorize := service.NewAuthorizeService(service.AuthorizeServiceConfig{}, database, clients, consents, tokens, workspaces)

	return &testStack{
		database:   database,
		clients:    clients,
		workspaces: workspaces,
		tokens:     tokens,
		consents:   consents,
		authorize:  authorize,
	}
}

func seedMember(t *testing.T, database *gorm.DB, workspaceID string, userID string, role string) {
	t.Helper()

	err := database.Create(&model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().Unix(),
	}).Error
	assert.NilError(t, err)
}

func registerTestClient(t *testing.T, clients *service.ClientService, redirectURI string) *model.Client {
	t.Helper()

	client, err := clients.Register(service.ClientRegistration{
		ClientName:   "Agent Under Test",
		RedirectURIs: []string{redirectURI},
	})
	assert.NilError(t, err)

	return client
}
