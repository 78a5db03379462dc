package loaders

import (
	"fmt"
	"os"
	"strings"

	"github.com/esiagate/esiagate/internal/config"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/traefik/paerser/cli"
	"github.com/traefik/paerser/env"
)

// EnvLoader reads PREFIX_SECTION_KEY variables, Prefix falls back to ESIAGATE_
type EnvLoader struct {
	Prefix string
}

func (e *EnvLoader) Load(_ []string, cmd *cli.Command) (bool, error) {
	prefix := e.Prefix
	if prefix == "" {
		prefix = config.DefaultNamePrefix
	}

	vars := env.FindPrefixedEnvVars(os.Environ(), prefix, cmd.Configuration)
	if len(vars) == 0 {
		return false, nil
	}

	if err := env.Decode(vars, prefix, cmd.Configuration); err != nil {
		return false, fmt.Errorf("invalid %s* environment variables: %w", prefix, err)
	}

	// names only, values may hold secrets
	names := make([]string, 0, len(vars))
	for _, v := range vars {
		name, _, _ := strings.Cut(v, "=")
		names = append(names, name)
	}

	tlog.App.Debug().Strs("variables", names).Msg("Loaded configuration from environment")

	return true, nil
}
