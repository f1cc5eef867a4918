package cmd

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck [app-url]",
	Short: "Perform a health check against a running instance.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		appURL := os.Getenv("APP_URL")

		if len(args) > 0 {
			appURL = args[0]
		}

		if appURL == "" {
			return fmt.Errorf("APP_URL is not set and no argument was provided")
		}

		client := http.Client{
			Timeout: 30 * time.Second,
		}

		resp, err := client.Get(appURL + "/api/health")

		if err != nil {
			return fmt.Errorf("failed to perform request: %w", err)
		}

		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("service is not healthy, got: %s", resp.Status)
		}

		log.Info().Str("app_url", appURL).Msg("Taskgate is healthy")

		return nil
	},
}
