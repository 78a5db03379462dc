package main

import (
	"errors"
	"io/fs"
	"os"
	"reflect"

	"github.com/esiagate/esiagate/internal/utils/tlog"
)

func main() {
	tlog.NewSimpleLogger().Init()

	tlog.App.Info().Msg("Generating example env file")
	if err := writeGenerated(".env.example", compileEnv(envEntries())); err != nil {
		tlog.App.Fatal().Err(err).Msg("Failed to write example env file")
	}

	tlog.App.Info().Msg("Generating config reference markdown file")
	if err := writeGenerated("config.gen.md", compileMd(mdEntries())); err != nil {
		tlog.App.Fatal().Err(err).Msg("Failed to write config reference")
	}
}

func writeGenerated(name string, contents []byte) error {
	err := os.Remove(name)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(name, contents, 0644)
}

// walkAndBuild visits every leaf option of a configuration struct
func walkAndBuild[T any](parent reflect.Type, parentValue reflect.Value,
	parentPath string, entries *[]T,
	buildEntry func(child reflect.StructField, childValue reflect.Value, parentPath string, entries *[]T),
	buildChildPath func(parentPath string, child reflect.StructField) string,
) {
	for i := 0; i < parent.NumField(); i++ {
		field := parent.Field(i)
		fieldValue := parentValue.Field(i)

		if field.Tag.Get("yaml") == "-" {
			continue
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			walkAndBuild(field.Type, fieldValue, buildChildPath(parentPath, field), entries, buildEntry, buildChildPath)
		case reflect.Bool, reflect.String, reflect.Slice, reflect.Int:
			buildEntry(field, fieldValue, parentPath, entries)
		default:
			tlog.App.Warn().Str("field", field.Name).Str("kind", field.Type.Kind().String()).Msg("Unsupported option type")
		}
	}
}

// defaultString renders a default value the way the loaders accept it
func defaultString(value reflect.Value) string {
	if value.Kind() == reflect.Slice {
		items := make([]string, 0, value.Len())
		for i := 0; i < value.Len(); i++ {
			items = append(items, value.Index(i).String())
		}
		return joinComma(items)
	}
	return formatValue(value.Interface())
}
