package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps a zap sugared logger behind the printf-style surface the
// miner and CLI use.
type Logger struct {
	*zap.SugaredLogger
}

// New creates a logger writing human-readable output to stdout.
func New(verbose bool) *Logger {
	return build(zapcore.Lock(os.Stdout), verbose)
}

// NewFile creates a logger appending to the given file.
func NewFile(path string, verbose bool) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	return build(zapcore.Lock(f), verbose), nil
}

func build(sink zapcore.WriteSyncer, verbose bool) *Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), sink, level)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}
}

// Printf logs at info level.
func (l *Logger) Printf(format string, args ...any) {
	l.Infof(format, args...)
}

// Println logs at info level.
func (l *Logger) Println(args ...any) {
	l.Infoln(args...)
}
