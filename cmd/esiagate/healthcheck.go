package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/traefik/paerser/cli"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func healthcheckCmd() *cli.Command {
	return &cli.Command{
		Name:          "healthcheck",
		Description:   "Perform a health check",
		Configuration: nil,
		Resources:     nil,
		AllowArg:      true,
		Run: func(args []string) error {
			tlog.NewSimpleLogger().Init()

			appURL := os.Getenv("ESIAGATE_APPURL")

			if len(args) > 0 {
				appURL = args[0]
			}

			if appURL == "" {
				return errors.New("ESIAGATE_APPURL is not set and no argument was provided")
			}

			prefix := os.Getenv("ESIAGATE_SERVER_PREFIX")

			if prefix == "" {
				prefix = "/api/v1"
			}

			tlog.App.Info().Str("app_url", appURL).Msg("Performing health check")

			client := http.Client{
				Timeout: 30 * time.Second,
			}

			req, err := http.NewRequest(http.MethodGet, strings.TrimSuffix(appURL, "/")+prefix+"/health", nil)

			if err != nil {
				return fmt.Errorf("failed to create request: %w", err)
			}

			resp, err := client.Do(req)

			if err != nil {
				return fmt.Errorf("failed to perform request: %w", err)
			}

			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("service is not healthy, got: %s", resp.Status)
			}

			var health healthResponse

			body, err := io.ReadAll(resp.Body)

			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			err = json.Unmarshal(body, &health)

			if err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}

			tlog.App.Info().Interface("response", health).Msg("esiagate is healthy")

			return nil
		},
	}
}
