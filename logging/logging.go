// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Options struct {
	Level string
	// File, when set, receives a copy of every record as JSON lines,
	// rotated by lumberjack.
	File      string
	MaxSizeMB int
	// Console defaults to os.Stderr.
	Console io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Init installs the global logger and routes gnark's internal logger through
// it. gnark only logs at debug level or below; above that it is silenced.
// The returned closer releases the log file.
func Init(opts Options) (io.Closer, error) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var (
		out    io.Writer = zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339}
		closer io.Closer = nopCloser{}
	)
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB,
		}
		out = zerolog.MultiLevelWriter(out, file)
		closer = file
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).Level(level).With().Timestamp().Logger()

	if level <= zerolog.DebugLevel {
		gnarklogger.Set(log.Logger.With().Str("component", "gnark").Logger())
	} else {
		gnarklogger.Disable()
	}
	return closer, nil
}
