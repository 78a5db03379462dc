package tlog_test

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/esiagate/esiagate/internal/config"
	"github.com/esiagate/esiagate/internal/utils/tlog"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"
)

func TestNewLogger(t *testing.T) {
	logger := tlog.NewLogger(config.LogConfig{
		Level: "debug",
		Json:  true,
		Streams: config.LogStreams{
			HTTP:  config.LogStreamConfig{Enabled: true, Level: "warn"},
			App:   config.LogStreamConfig{Enabled: true},
			Audit: config.LogStreamConfig{Enabled: false},
		},
	})

	assert.Equal(t, zerolog.WarnLevel, logger.HTTP.GetLevel())
	assert.Equal(t, zerolog.DebugLevel, logger.App.GetLevel())
	assert.Equal(t, zerolog.Disabled, logger.Audit.GetLevel())
}

func TestNewSimpleLogger(t *testing.T) {
	logger := tlog.NewSimpleLogger()

	assert.Equal(t, zerolog.InfoLevel, logger.HTTP.GetLevel())
	assert.Equal(t, zerolog.InfoLevel, logger.App.GetLevel())
	assert.Equal(t, zerolog.Disabled, logger.Audit.GetLevel())
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	logger := tlog.NewLogger(config.LogConfig{
		Level: "loud",
		Streams: config.LogStreams{
			App: config.LogStreamConfig{Enabled: true},
		},
	})

	assert.Equal(t, zerolog.InfoLevel, logger.App.GetLevel())
}

func TestLoggerInit(t *testing.T) {
	logger := tlog.NewLogger(config.LogConfig{
		Level: "error",
		Streams: config.LogStreams{
			App: config.LogStreamConfig{Enabled: true},
		},
	})
	logger.Init()

	assert.Equal(t, zerolog.ErrorLevel, tlog.App.GetLevel())
	assert.Equal(t, zerolog.Disabled, tlog.HTTP.GetLevel())
}

func TestAuditStreamOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := tlog.NewLoggerWithWriter(config.LogConfig{
		Level: "info",
		Json:  true,
		Streams: config.LogStreams{
			Audit: config.LogStreamConfig{Enabled: true},
		},
	}, &buf)
	logger.Init()
	t.Cleanup(func() { tlog.NewSimpleLogger().Init() })

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/auth/callback", nil)

	tlog.AuditSignIn(c, "1000", "authorization_code")

	line := strings.TrimSpace(buf.String())
	assert.Assert(t, is.Contains(line, `"log_stream":"audit"`))
	assert.Assert(t, is.Contains(line, `"service":"esiagate"`))
	assert.Assert(t, is.Contains(line, `"event":"sign_in"`))
	assert.Assert(t, is.Contains(line, `"esia_uid":"1000"`))
	assert.Assert(t, !strings.Contains(line, `"caller"`))

	// the app stream is disabled in this configuration
	buf.Reset()
	tlog.App.Info().Msg("dropped")
	assert.Equal(t, buf.Len(), 0)
}
