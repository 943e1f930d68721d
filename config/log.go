// config/log.go
package config

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
)

var LogLevel string

func init() {
	flag.StringVar(&LogLevel, "log-level", "info", "set log level (debug, info, warn, error)")
}

// InitLogger builds the façade's zerolog.Logger from a LoggingConfig,
// defaulting to "info" on an unrecognized level rather than failing
// startup over a typo'd level.
func InitLogger(cfg LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out zerolog.Logger
	if cfg.Pretty {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		out = zerolog.New(os.Stdout)
	}
	return out.Level(level).With().Timestamp().Logger()
}
