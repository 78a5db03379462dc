package loaders

import (
	"strings"

	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/traefik/paerser/cli"
	"github.com/traefik/paerser/file"
	"github.com/traefik/paerser/flag"
)

// paerser always reports flags under the traefik root name
const configFileFlag = "traefik.configfile"

type FileLoader struct{}

func (f *FileLoader) Load(args []string, cmd *cli.Command) (bool, error) {
	flags, err := flag.Parse(args, cmd.Configuration)

	if err != nil {
		return false, err
	}

	var path string

	for key, value := range flags {
		if strings.EqualFold(key, configFileFlag) {
			path = value
			break
		}
	}

	if path == "" {
		return false, nil
	}

	tlog.App.Info().Str("file", path).Msg("Loading configuration file")

	err = file.Decode(path, cmd.Configuration)

	if err != nil {
		return false, err
	}

	return true, nil
}
