// Package logger provides structured logging using zerolog.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// Config represents logger configuration.
type Config struct {
	Level string // "debug", "info", "warn", "error"
	File  string // JSON log file; console output on stderr when empty
}

// Init initializes the global zerolog logger. The returned closer releases the
// log file, if any.
func Init(cfg Config) (io.Closer, error) {
	logger, closer, err := New(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))
	zerolog.DefaultContextLogger = &logger
	zlog.Logger = logger
	return closer, nil
}

// New builds a logger without touching global state. console receives output
// when cfg.File is empty.
func New(cfg Config, console io.Writer) (zerolog.Logger, io.Closer, error) {
	level := parseLevel(cfg.Level)

	zerolog.TimeFieldFormat = time.TimeOnly
	zerolog.TimestampFieldName = "time"
	zerolog.LevelFieldName = "level"
	zerolog.MessageFieldName = "message"
	zerolog.CallerMarshalFunc = shortCaller

	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, errors.Wrapf(err, "failed to open log file %s", cfg.File)
		}
		ctx := zerolog.New(f).Level(level).With().Timestamp()
		if level == zerolog.DebugLevel {
			ctx = ctx.Caller()
		}
		return ctx.Logger(), f, nil
	}

	writer := zerolog.ConsoleWriter{
		Out:        console,
		TimeFormat: time.TimeOnly,
	}
	ctx := zerolog.New(writer).Level(level).With().Timestamp()
	if level == zerolog.DebugLevel {
		// Caller only for DEBUG level
		writer.PartsOrder = []string{"time", "level", "message", "caller"}
		writer.FormatCaller = func(i any) string {
			return "(" + i.(string) + ")"
		}
		ctx = zerolog.New(writer).Level(level).With().Timestamp().Caller()
	}
	return ctx.Logger(), nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func shortCaller(pc uintptr, file string, line int) string {
	parts := strings.Split(file, string(filepath.Separator))
	if len(parts) > 1 {
		return filepath.Join(parts[len(parts)-2:]...) + ":" + strconv.Itoa(line)
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}

// parseLevel parses the log level string.
func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
