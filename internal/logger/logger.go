package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// Logger is the process-wide logger instance.
	Logger = log.Logger
)

// Config defines the logging behavior.
type Config struct {
	Level        string `json:"level" yaml:"level"`
	Format       string `json:"format" yaml:"format"` // json or pretty
	TimeFormat   string `json:"time_format" yaml:"time_format"`
	ReportCaller bool   `json:"report_caller" yaml:"report_caller"`
}

// Init configures the global logger.
func Init(config Config) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var output io.Writer = os.Stdout
	if config.Format == "pretty" {
		output = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: config.TimeFormat,
		}
	}

	if config.TimeFormat == "" {
		zerolog.TimeFieldFormat = time.RFC3339
	} else {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	contextLogger := zerolog.New(output).
		Level(level).
		With().
		Timestamp()

	if config.ReportCaller {
		contextLogger = contextLogger.Caller()
	}

	Logger = contextLogger.Logger()
	log.Logger = Logger
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Warn starts a warn-level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Fatal starts a fatal-level event; the process exits after logging.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// Ctx returns the logger stored in ctx, if any.
func Ctx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// WithContext attaches the global logger to ctx.
func WithContext(ctx context.Context) context.Context {
	return Logger.WithContext(ctx)
}
