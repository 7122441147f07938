package logger

import (
	"os"
	"strconv"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New creates a new zap logger configured for console output
// with line numbers and no timestamps.
func New(debug bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:    "msg",
		LevelKey:      "level",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		LineEnding:    zapcore.DefaultLineEnding,
		EncodeLevel:   zapcore.CapitalColorLevelEncoder, // Colored level names
		EncodeCaller:  zapcore.ShortCallerEncoder,       // Show file:line
		// TimeKey is omitted to remove timestamps
	}

	config := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       debug,
		Encoding:          "console",
		EncoderConfig:     encoderConfig,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: !debug,
	}

	return config.Build()
}

// NewWithFile writes log entries to a rotating file instead of the terminal.
// The interactive header owns the screen, so anything written to stdout or
// stderr would corrupt the rendered view.
func NewWithFile(debug bool, path string) *zap.Logger {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(newRotatingWriter(path)),
		level,
	)
	return zap.New(core, zap.AddCaller())
}

// newRotatingWriter builds a lumberjack writer, sizes overridable by env.
func newRotatingWriter(path string) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    1, // MB
		MaxBackups: 2,
		MaxAge:     30,
		Compress:   false,
	}

	if v, err := strconv.Atoi(os.Getenv("GITPANE_LOG_MAX_SIZE")); err == nil && v > 0 {
		w.MaxSize = v
	}
	if v, err := strconv.Atoi(os.Getenv("GITPANE_LOG_MAX_BACKUPS")); err == nil && v >= 0 {
		w.MaxBackups = v
	}

	return w
}
