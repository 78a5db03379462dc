package tlog

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/esiagate/esiagate/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const serviceName = "esiagate"

type Logger struct {
	Audit zerolog.Logger
	HTTP  zerolog.Logger
	App   zerolog.Logger
}

var (
	Audit = zerolog.Nop()
	HTTP  = zerolog.Nop()
	App   = zerolog.Nop()
)

func NewLogger(cfg config.LogConfig) *Logger {
	return NewLoggerWithWriter(cfg, os.Stderr)
}

// NewLoggerWithWriter builds the streams on top of out, callers are only recorded at debug and below
func NewLoggerWithWriter(cfg config.LogConfig, out io.Writer) *Logger {
	level := parseLogLevel(cfg.Level)

	if !cfg.Json {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	ctx := zerolog.New(out).With().
		Timestamp().
		Str("service", serviceName)

	if level <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}

	baseLogger := ctx.Logger().Level(level)

	return &Logger{
		Audit: createLogger("audit", cfg.Streams.Audit, baseLogger),
		HTTP:  createLogger("http", cfg.Streams.HTTP, baseLogger),
		App:   createLogger("app", cfg.Streams.App, baseLogger),
	}
}

func NewSimpleLogger() *Logger {
	return NewLogger(config.LogConfig{
		Level: "info",
		Json:  false,
		Streams: config.LogStreams{
			HTTP:  config.LogStreamConfig{Enabled: true},
			App:   config.LogStreamConfig{Enabled: true},
			Audit: config.LogStreamConfig{Enabled: false},
		},
	})
}

func (l *Logger) Init() {
	Audit = l.Audit
	HTTP = l.HTTP
	App = l.App
}

func createLogger(component string, streamCfg config.LogStreamConfig, baseLogger zerolog.Logger) zerolog.Logger {
	if !streamCfg.Enabled {
		return zerolog.Nop()
	}
	subLogger := baseLogger.With().Str("log_stream", component).Logger()
	// override level if specified, otherwise use base level
	if streamCfg.Level != "" {
		subLogger = subLogger.Level(parseLogLevel(streamCfg.Level))
	}
	return subLogger
}

func parseLogLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsedLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Err(err).Str("level", level).Msg("Invalid log level, defaulting to info")
		parsedLevel = zerolog.InfoLevel
	}
	return parsedLevel
}
