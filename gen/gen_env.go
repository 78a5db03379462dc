package main

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/esiagate/esiagate/internal/config"
)

type EnvEntry struct {
	Name        string
	Description string
	Value       string
}

func envEntries() []EnvEntry {
	cfg := config.NewDefaultConfiguration()
	entries := make([]EnvEntry, 0)

	walkAndBuild(reflect.TypeOf(cfg).Elem(), reflect.ValueOf(cfg).Elem(), config.DefaultNamePrefix, &entries, buildEnvEntry, buildEnvChildPath)

	return entries
}

func buildEnvEntry(child reflect.StructField, childValue reflect.Value, parentPath string, entries *[]EnvEntry) {
	value := defaultString(childValue)

	if childValue.Kind() == reflect.String && value != "" {
		value = fmt.Sprintf("%q", value)
	}

	*entries = append(*entries, EnvEntry{
		Name:        parentPath + strings.ToUpper(child.Name),
		Description: child.Tag.Get("description"),
		Value:       value,
	})
}

func buildEnvChildPath(parentPath string, child reflect.StructField) string {
	return parentPath + strings.ToUpper(child.Name) + "_"
}

func compileEnv(entries []EnvEntry) []byte {
	buffer := bytes.Buffer{}
	buffer.WriteString("# esiagate example configuration\n\n")

	for _, entry := range entries {
		fmt.Fprintf(&buffer, "# %s\n%s=%s\n\n", entry.Description, entry.Name, entry.Value)
	}

	return buffer.Bytes()
}
