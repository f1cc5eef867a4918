package bootstrap

import (
	"fmt"
	"time"

	"github.com/taskgate/taskgate/internal/config"
	"github.com/taskgate/taskgate/internal/utils"

	"github.com/rs/zerolog/log"
)

type BootstrapApp struct {
	config  config.Config
	context struct {
		sessionSecret string
	}
	services Services
}

func NewBootstrapApp(config config.Config) *BootstrapApp {
	return &BootstrapApp{
		config: config,
	}
}

func (app *BootstrapApp) Setup() error {
	// Session secret
	sessionSecret := utils.GetSecret(app.config.SessionSecret, app.config.SessionSecretFile)

	if sessionSecret == "" {
		generated, err := utils.GetRandomString(32)

		if err != nil {
			return fmt.Errorf("failed to generate session secret: %w", err)
		}

		log.Warn().Msg("No session secret configured, using a generated one; sessions will not survive a restart")
		sessionSecret = generated
	}

	app.context.sessionSecret = sessionSecret

	// Services
	services, err := app.initServices()

	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	app.services = services

	// Setup router
	router, err := app.setupRouter()

	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	// Expired codes and tokens are rejected at read time; the reaper only
	// keeps the tables from growing without bound.
	if !app.config.DisableReaper {
		log.Debug().Msg("Starting expired credential cleanup routine")
		go app.reaper()
	}

	// Start server
	address := fmt.Sprintf("%s:%d", app.config.Address, app.config.Port)
	log.Info().Msgf("Starting server on %s", address)
	if err := router.Run(address); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	return nil
}

func (app *BootstrapApp) reaper() {
	ticker := time.NewTicker(time.Duration(30) * time.Minute)
	defer ticker.Stop()

	for ; true; <-ticker.C {
		log.Debug().Msg("Cleaning up expired codes and tokens")
		err := app.services.tokenService.ReapExpired()
		if err != nil {
			log.Error().Err(err).Msg("Failed to clean up expired codes and tokens")
		}
	}
}
