package utils

import (
	"slices"
	"strings"
)

// SplitScopes splits a space separated scope string, dropping duplicates and blanks
func SplitScopes(scope string) []string {
	fields := strings.Fields(scope)
	scopes := make([]string, 0, len(fields))
	for _, field := range fields {
		if slices.Contains(scopes, field) {
			continue
		}
		scopes = append(scopes, field)
	}
	return scopes
}

func CoalesceString(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
