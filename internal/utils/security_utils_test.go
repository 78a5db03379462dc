package utils_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/esiagate/esiagate/internal/utils"

	"gotest.tools/v3/assert"
)

func TestGetSecret(t *testing.T) {
	secretFile := filepath.Join(t.TempDir(), "secret")
	err := os.WriteFile(secretFile, []byte("       secret       \n"), 0600)
	assert.NilError(t, err)

	// Get from config
	secret, err := utils.GetSecret("mysecret", "")
	assert.NilError(t, err)
	assert.Equal(t, "mysecret", secret)

	// Get from file
	secret, err = utils.GetSecret("", secretFile)
	assert.NilError(t, err)
	assert.Equal(t, "secret", secret)

	// Config should take precedence
	secret, err = utils.GetSecret("mysecret", secretFile)
	assert.NilError(t, err)
	assert.Equal(t, "mysecret", secret)

	// Get from none
	secret, err = utils.GetSecret("", "")
	assert.NilError(t, err)
	assert.Equal(t, "", secret)

	// Unreadable file is reported
	missing := filepath.Join(t.TempDir(), "missing")
	_, err = utils.GetSecret("", missing)
	assert.ErrorContains(t, err, "failed to read secret file "+missing)
}

func TestParseSecretFile(t *testing.T) {
	assert.Equal(t, "mysecret", utils.ParseSecretFile("   mysecret   \n"))
	assert.Equal(t, "firstsecret", utils.ParseSecretFile("\n\n   firstsecret   \nsecondsecret\n"))
	assert.Equal(t, "", utils.ParseSecretFile("\n   \n  \n"))
	assert.Equal(t, "", utils.ParseSecretFile(""))
}

func TestGetRandomToken(t *testing.T) {
	token, err := utils.GetRandomToken(32)
	assert.NilError(t, err)

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	assert.NilError(t, err)
	assert.Equal(t, 32, len(decoded))

	other, err := utils.GetRandomToken(32)
	assert.NilError(t, err)
	assert.Assert(t, token != other)

	_, err = utils.GetRandomToken(0)
	assert.ErrorContains(t, err, "size must be greater than 0")
}

func TestGetBearerToken(t *testing.T) {
	token, ok := utils.GetBearerToken("Bearer abc.def")
	assert.Assert(t, ok)
	assert.Equal(t, "abc.def", token)

	token, ok = utils.GetBearerToken("bearer   xyz  ")
	assert.Assert(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = utils.GetBearerToken("Basic dXNlcjpwYXNz")
	assert.Assert(t, !ok)

	_, ok = utils.GetBearerToken("Bearer ")
	assert.Assert(t, !ok)

	_, ok = utils.GetBearerToken("")
	assert.Assert(t, !ok)
}
