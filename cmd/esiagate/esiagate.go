package main

import (
	"fmt"

	"github.com/esiagate/esiagate/internal/bootstrap"
	"github.com/esiagate/esiagate/internal/config"
	"github.com/esiagate/esiagate/internal/utils/loaders"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/rs/zerolog/log"
	"github.com/traefik/paerser/cli"
)

func main() {
	tConfig := config.NewDefaultConfiguration()

	loaders := []cli.ResourceLoader{
		&loaders.FileLoader{},
		&loaders.FlagLoader{},
		&loaders.EnvLoader{},
	}

	cmdEsiagate := &cli.Command{
		Name:          "esiagate",
		Description:   "OAuth2 and OpenID Connect backend for the ESIA identity gateway.",
		Configuration: tConfig,
		Resources:     loaders,
		Run: func(_ []string) error {
			return runCmd(*tConfig)
		},
	}

	err := cmdEsiagate.AddCommand(versionCmd())

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add version command")
	}

	err = cmdEsiagate.AddCommand(healthcheckCmd())

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add healthcheck command")
	}

	err = cli.Execute(cmdEsiagate)

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to execute command")
	}
}

func runCmd(cfg config.Config) error {
	logger := tlog.NewLogger(cfg.Log)
	logger.Init()

	tlog.App.Info().Str("version", config.Version).Msg("Starting esiagate")

	app := bootstrap.NewBootstrapApp(cfg)

	err := app.Setup()

	if err != nil {
		return fmt.Errorf("failed to bootstrap app: %w", err)
	}

	return nil
}
