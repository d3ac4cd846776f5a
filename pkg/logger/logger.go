package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type Config struct {
	Env       string
	AddSource bool
	Output    io.Writer
}

// Logger is a wrapper around slog.Logger with additional methods
type Logger struct {
	*slog.Logger
}

func New(config Config) (*Logger, error) {
	if config.Output == nil {
		config.Output = os.Stdout
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     parseLogLevel(config.Env),
		AddSource: config.AddSource,
	}

	handler, err := determineHandler(config, handlerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to determine handler: %w", err)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	return &Logger{
		Logger: logger,
	}, nil
}

func determineHandler(config Config, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch strings.ToLower(config.Env) {
	case "prod":
		return slog.NewJSONHandler(config.Output, opts), nil
	case "dev":
		return slog.NewTextHandler(config.Output, opts), nil
	case "test":
		return slog.NewTextHandler(config.Output, &slog.HandlerOptions{
			Level: slog.LevelError,
		}), nil
	default:
		return nil, fmt.Errorf("unknown environment: %s (use 'dev', 'prod', or 'test')", config.Env)
	}
}

func parseLogLevel(env string) slog.Level {
	switch strings.ToLower(env) {
	case "dev":
		return slog.LevelDebug
	case "prod":
		return slog.LevelInfo
	case "test":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
