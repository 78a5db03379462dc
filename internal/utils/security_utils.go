package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// GetSecret prefers the inline value and otherwise reads the first non-blank line of file
func GetSecret(conf string, file string) (string, error) {
	if conf != "" || file == "" {
		return conf, nil
	}

	contents, err := ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", file, err)
	}

	return ParseSecretFile(contents), nil
}

func ParseSecretFile(contents string) string {
	lines := strings.Split(contents, "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.TrimSpace(line)
	}

	return ""
}

// GetRandomToken returns size random bytes encoded as unpadded base64url
func GetRandomToken(size int) (string, error) {
	if size < 1 {
		return "", errors.New("size must be greater than 0")
	}
	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GetBearerToken extracts the credential from an Authorization header value
func GetBearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
