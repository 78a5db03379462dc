package loaders

import (
	"fmt"
	"slices"
	"strings"

	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/traefik/paerser/cli"
	"github.com/traefik/paerser/flag"
)

type FlagLoader struct{}

// Load decodes --section.key flags, a command line made of positional arguments only is left to the command
func (*FlagLoader) Load(args []string, cmd *cli.Command) (bool, error) {
	hasFlag := slices.ContainsFunc(args, func(arg string) bool {
		return strings.HasPrefix(arg, "-")
	})

	if !hasFlag {
		return false, nil
	}

	if err := flag.Decode(args, cmd.Configuration); err != nil {
		return false, fmt.Errorf("invalid command line flags for %s: %w", cmd.Name, err)
	}

	tlog.App.Debug().Int("args", len(args)).Msg("Loaded configuration from flags")

	return true, nil
}
