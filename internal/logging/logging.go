package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLevel = "warn"

type Options struct {
	// Level is a zap level name. Empty means DefaultLevel.
	Level string
	// Verbose forces debug logging, including logr V(1) messages.
	Verbose bool
	// Output defaults to stderr.
	Output io.Writer
}

// New builds the process logger: zap production encoding behind a logr facade.
// The returned sync function flushes buffered entries.
func New(opts Options) (logr.Logger, func() error, error) {
	config := zap.NewProductionConfig()

	levelName := strings.TrimSpace(opts.Level)
	if levelName == "" {
		levelName = DefaultLevel
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("parse log level: %w", err)
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.Lock(zapcore.AddSync(output)),
		zap.NewAtomicLevelAt(level),
	)
	zapLogger := zap.New(core, zap.AddCaller())

	return zapr.NewLogger(zapLogger).WithName("amprest"), zapLogger.Sync, nil
}
