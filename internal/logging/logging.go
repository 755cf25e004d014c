// Package logging configures the global zerolog logger and tracks
// operational counters for the fetch pipeline.
//
// Console output goes to stderr with level coloring; when a log file path
// is configured, a second JSON stream captures everything at debug level,
// mirroring the split between what a user watches and what gets kept for
// later diagnosis.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls logger initialization.
type Options struct {
	Level   string // debug|info|warn|error
	File    string // optional log file path, JSON lines
	NoColor bool
}

// Init initializes the global logger. Returns a closer for the log file,
// which is a no-op when no file is configured.
func Init(opts Options) (func() error, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "03:04:05 PM",
		NoColor:    opts.NoColor,
	}

	closer := func() error { return nil }
	var writer zerolog.LevelWriter = zerolog.MultiLevelWriter(console)
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		closer = f.Close
		writer = zerolog.MultiLevelWriter(console, f)
		// The file stream keeps debug detail even when the console
		// level is higher.
		level = minLevel(level, zerolog.DebugLevel)
	}

	log.Logger = zerolog.New(writer).
		Level(level).
		With().
		Timestamp().
		Logger()

	return closer, nil
}

func minLevel(a, b zerolog.Level) zerolog.Level {
	if b < a {
		return b
	}
	return a
}

// WithComponent returns a sub-logger tagged with a component name.
func WithComponent(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}
