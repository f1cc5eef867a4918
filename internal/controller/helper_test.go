package controller_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/controller"
	"github.com/taskgate/taskgate/internal/middleware"
	"github.com/taskgate/taskgate/internal/model"
	"github.com/taskgate/taskgate/internal/service"

	"github.com/gin-gonic/gin"
	"gotest.tools/v3/assert"
	"gorm.io/gorm"
)

const testAppURL = "https://taskgate.example"

// testApp wires the full HTTP surface against a fresh database. Session
// handling is replaced by a middleware that injects whatever identity the
// test sets, the same way a logged-in cookie would.
type testApp struct {
	engine   *gin.Engine
	database *gorm.DB

	clients   *service.ClientService
	tokens    *service.TokenService
	consents  *service.ConsentService
	authorize *service.AuthorizeService

	identity *config.IdentityContext
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gin.SetMode(gin.TestMode)

	databaseService := service.NewDatabaseService(service.DatabaseServiceConfig{
		DatabasePath: filepath.Join(t.TempDir(), "taskgate.db"),
	})
	assert.NilError(t, databaseService.Init())
	database := databaseService.GetDatabase()

	clients := service.NewClientService(database)
	workspaces := service.NewWorkspaceService(database)
	tokens := service.NewTokenService(service.TokenServiceConfig{}, database)
	consents := service.NewConsentService(database, tokens)
	authorize := service.NewAuthorizeService(service.AuthorizeServiceConfig{}, database, clients, consents, tokens, workspaces)

	app := &testApp{
		database:  database,
		clients:   clients,
		tokens:    tokens,
		consents:  consents,
		authorize: authorize,
	}

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		if app.identity != nil {
			c.Set("identity", *app.identity)
		}
		c.Next()
	})

	wellKnownController := controller.NewWellKnownController(controller.WellKnownControllerConfig{
		AppURL: testAppURL,
		Issuer: testAppURL,
	}, engine)
	wellKnownController.SetupRoutes()

	apiRouter := engine.Group("/api")

	oauthController := controller.NewOAuthController(controller.OAuthControllerConfig{
		AppURL: testAppURL,
	}, apiRouter, clients, authorize, tokens)
	oauthController.SetupRoutes()

	connectionController := controller.NewConnectionController(apiRouter, consents, workspaces)
	connectionController.SetupRoutes()

	bearerMiddleware := middleware.NewBearerMiddleware(middleware.BearerMiddlewareConfig{
		AppURL: testAppURL,
		Realm:  "taskgate",
	}, tokens)
	assert.NilError(t, bearerMiddleware.Init())

	mcpRouter := apiRouter.Group("/mcp")
	mcpRouter.Use(bearerMiddleware.Middleware())

	toolsController := controller.NewToolsController(mcpRouter, tokens)
	toolsController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)
	healthController.SetupRoutes()

	app.engine = engine
	return app
}

func (app *testApp) loginAs(userID string) {
	app.identity = &config.IdentityContext{
		UserID:     userID,
		Name:       "Test User",
		Email:      userID + "@example.com",
		IsLoggedIn: true,
	}
}

func (app *testApp) logout() {
	app.identity = nil
}

func (app *testApp) seedMember(t *testing.T, workspaceID string, userID string, role string) {
	t.Helper()

	err := app.database.Create(&model.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      userID,
		Role:        role,
		CreatedAt:   time.Now().Unix(),
	}).Error
	assert.NilError(t, err)
}

func (app *testApp) do(t *testing.T, request *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	recorder := httptest.NewRecorder()
	app.engine.ServeHTTP(recorder, request)
	return recorder
}

func (app *testApp) postForm(t *testing.T, path string, form map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	values := url.Values{}
	for key, value := range form {
		values.Set(key, value)
	}

	request := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return app.do(t, request)
}

func (app *testApp) postJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return app.sendJSON(t, http.MethodPost, path, body)
}

func (app *testApp) patchJSON(t *testing.T, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return app.sendJSON(t, http.MethodPatch, path, body)
}

func (app *testApp) sendJSON(t *testing.T, method string, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	encoded, err := json.Marshal(body)
	assert.NilError(t, err)

	request := httptest.NewRequest(method, path, strings.NewReader(string(encoded)))
	request.Header.Set("Content-Type", "application/json")
	return app.do(t, request)
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, target interface{}) {
	t.Helper()

	body, err := io.ReadAll(recorder.Body)
	assert.NilError(t, err)
	assert.NilError(t, json.Unmarshal(body, target))
}

func errorCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, recorder, &body)
	return body.Error
}
