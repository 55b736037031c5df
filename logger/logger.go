package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Initialize configures the global zerolog logger: console output on
// stdout with RFC3339 timestamps and caller annotations.
func Initialize() {
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	log.Logger = zerolog.New(output).With().Timestamp().Caller().Logger()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

// Get exposes the configured global logger.
func Get() *zerolog.Logger {
	return &log.Logger
}
