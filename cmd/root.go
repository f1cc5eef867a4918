package cmd

import (
	"github.com/taskgate/taskgate/internal/bootstrap"
	"github.com/taskgate/taskgate/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "taskgate",
	Short: "OAuth 2.0 authorization server for AI-agent workspace access.",
	Long:  `Taskgate grants AI-agent clients scoped, delegated access to a workspace's task-management tools via OAuth 2.0 with PKCE, rotating refresh tokens and durable consents.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Get config
		log.Info().Msg("Parsing config")
		var cfg config.Config
		parseErr := viper.Unmarshal(&cfg)
		HandleError(parseErr, "Failed to parse config")

		// Validate config
		log.Info().Msg("Validating config")
		validate := validator.New()
		validateErr := validate.Struct(cfg)
		HandleError(validateErr, "Invalid config")

		// Set log level
		level, levelErr := zerolog.ParseLevel(cfg.LogLevel)
		HandleError(levelErr, "Invalid log level")
		zerolog.SetGlobalLevel(level)

		log.Info().Str("version", config.Version).Msg("Starting taskgate")

		app := bootstrap.NewBootstrapApp(cfg)

		setupErr := app.Setup()
		HandleError(setupErr, "Failed to bootstrap app")
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

func HandleError(err error, msg string) {
	if err != nil {
		log.Fatal().Err(err).Msg(msg)
	}
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthcheckCmd)
	viper.AutomaticEnv()
	rootCmd.Flags().Int("port", 3000, "Port to run the server on.")
	rootCmd.Flags().String("address", "0.0.0.0", "Address to bind the server to.")
	rootCmd.Flags().String("app-url", "", "The public taskgate URL.")
	rootCmd.Flags().String("database-path", "./taskgate.db", "Path to the sqlite database.")
	rootCmd.Flags().String("log-level", "info", "Log level.")
	rootCmd.Flags().String("session-secret", "", "Secret used to authenticate session cookies.")
	rootCmd.Flags().String("session-secret-file", "", "Path to a file containing the session secret.")
	rootCmd.Flags().Int("code-expiry", 300, "Authorization code lifetime in seconds.")
	rootCmd.Flags().Int("access-token-expiry", 900, "Access token lifetime in seconds.")
	rootCmd.Flags().Int("refresh-token-expiry", 2592000, "Refresh token lifetime in seconds.")
	rootCmd.Flags().String("trusted-proxies", "", "Comma separated list of trusted proxies.")
	rootCmd.Flags().Bool("disable-reaper", false, "Disable the expired credential cleanup routine.")
	viper.BindEnv("port", "PORT")
	viper.BindEnv("address", "ADDRESS")
	viper.BindEnv("app-url", "APP_URL")
	viper.BindEnv("database-path", "DATABASE_PATH")
	viper.BindEnv("log-level", "LOG_LEVEL")
	viper.BindEnv("session-secret", "SESSION_SECRET")
	viper.BindEnv("session-secret-file", "SESSION_SECRET_FILE")
	viper.BindEnv("code-expiry", "CODE_EXPIRY")
	viper.BindEnv("access-token-expiry", "ACCESS_TOKEN_EXPIRY")
	viper.BindEnv("refresh-token-expiry", "REFRESH_TOKEN_EXPIRY")
	viper.BindEnv("trusted-proxies", "TRUSTED_PROXIES")
	viper.BindEnv("disable-reaper", "DISABLE_REAPER")
	viper.BindPFlags(rootCmd.Flags())
}
