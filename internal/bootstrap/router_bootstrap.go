package bootstrap

import (
	"fmt"
	"strings"

	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/controller"
	"github.com/taskgate/taskgate/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (app *BootstrapApp) setupRouter() (*gin.Engine, error) {
	engine := gin.New()
	engine.Use(gin.Recovery())

	if app.config.TrustedProxies != "" {
		err := engine.SetTrustedProxies(strings.Split(app.config.TrustedProxies, ","))

		if err != nil {
			return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
		}
	}

	zerologMiddleware := middleware.NewZerologMiddleware()

	if err := zerologMiddleware.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize zerolog middleware: %w", err)
	}

	engine.Use(zerologMiddleware.Middleware())

	sessionMiddleware := middleware.NewSessionMiddleware(middleware.SessionMiddlewareConfig{
		SessionSecret: app.context.sessionSecret,
		CookieName:    config.SessionCookieName,
		SecureCookie:  strings.HasPrefix(app.config.AppURL, "https://"),
	})

	if err := sessionMiddleware.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize session middleware: %w", err)
	}

	engine.Use(sessionMiddleware.Middleware())

	wellKnownController := controller.NewWellKnownController(controller.WellKnownControllerConfig{
		AppURL: app.config.AppURL,
		Issuer: app.config.AppURL,
	}, engine)

	wellKnownController.SetupRoutes()

	apiRouter := engine.Group("/api")

	oauthController := controller.NewOAuthController(controller.OAuthControllerConfig{
		AppURL: app.config.AppURL,
	}, apiRouter, app.services.clientService, app.services.authorizeService, app.services.tokenService)

	oauthController.SetupRoutes()

	connectionController := controller.NewConnectionController(apiRouter, app.services.consentService, app.services.workspaceService)

	connectionController.SetupRoutes()

	bearerMiddleware := middleware.NewBearerMiddleware(middleware.BearerMiddlewareConfig{
		AppURL: app.config.AppURL,
		Realm:  "taskgate",
	}, app.services.tokenService)

	if err := bearerMiddleware.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize bearer middleware: %w", err)
	}

	mcpRouter := apiRouter.Group("/mcp")
	mcpRouter.Use(bearerMiddleware.Middleware())

	toolsController := controller.NewToolsController(mcpRouter, app.services.tokenService)

	toolsController.SetupRoutes()

	healthController := controller.NewHealthController(apiRouter)

	healthController.SetupRoutes()

	return engine, nil
}
