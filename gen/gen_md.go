package main

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/esiagate/esiagate/internal/config"
)

type MarkdownEntry struct {
	Section     string
	Env         string
	Flag        string
	Description string
	Default     string
}

func mdEntries() []MarkdownEntry {
	cfg := config.NewDefaultConfiguration()
	entries := make([]MarkdownEntry, 0)

	walkAndBuild(reflect.TypeOf(cfg).Elem(), reflect.ValueOf(cfg).Elem(), "", &entries, buildMdEntry, buildMdChildPath)

	return entries
}

func buildMdEntry(child reflect.StructField, childValue reflect.Value, parentPath string, entries *[]MarkdownEntry) {
	section, _, _ := strings.Cut(parentPath, ".")

	if section == "" {
		section = "general"
	}

	*entries = append(*entries, MarkdownEntry{
		Section:     section,
		Env:         config.DefaultNamePrefix + strings.ToUpper(strings.ReplaceAll(parentPath, ".", "_")+child.Name),
		Flag:        "--" + parentPath + strings.ToLower(child.Name),
		Description: child.Tag.Get("description"),
		Default:     "`" + defaultString(childValue) + "`",
	})
}

func buildMdChildPath(parentPath string, child reflect.StructField) string {
	return parentPath + strings.ToLower(child.Name) + "."
}

func compileMd(entries []MarkdownEntry) []byte {
	buffer := bytes.Buffer{}

	buffer.WriteString("# esiagate configuration reference\n\n")
	writeMdHeader(&buffer)

	previousSection := ""

	for _, entry := range entries {
		if entry.Section != previousSection {
			buffer.WriteString("\n## " + entry.Section + "\n\n")
			writeMdHeader(&buffer)
			previousSection = entry.Section
		}
		fmt.Fprintf(&buffer, "| `%s` | `%s` | %s | %s |\n", entry.Env, entry.Flag, entry.Description, entry.Default)
	}

	return buffer.Bytes()
}

func writeMdHeader(buffer *bytes.Buffer) {
	buffer.WriteString("| Environment | Flag | Description | Default |\n")
	buffer.WriteString("| - | - | - | - |\n")
}

func formatValue(value any) string {
	return fmt.Sprintf("%v", value)
}

func joinComma(items []string) string {
	return strings.Join(items, ",")
}
