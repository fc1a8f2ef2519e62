package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

// ParseLevel maps a config string to a LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "critical", "fatal":
		return LevelCritical
	default:
		return LevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	case LevelCritical:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

type Logger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
	output *os.File
}

// NewLogger writes JSON lines to path and human-readable lines to stdout.
// An empty path logs to stdout only.
func NewLogger(level LogLevel, path string) (*Logger, error) {
	atom := zap.NewAtomicLevelAt(level.zapLevel())

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), atom),
	}

	var file *os.File
	if path != "" {
		rotation := NewLogRotation(50*1024*1024, 7*24*time.Hour, 5)
		if rotation.ShouldRotate(path) {
			if _, err := rotation.Rotate(path); err != nil {
				return nil, fmt.Errorf("rotate %s: %w", path, err)
			}
		}

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		file = f
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(f),
			atom,
		))
	}

	base := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(2))
	return &Logger{base: base, sugar: base.Sugar(), output: file}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	base := zap.NewNop()
	return &Logger{base: base, sugar: base.Sugar()}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	switch level {
	case LevelDebug:
		l.sugar.Debugf(format, args...)
	case LevelInfo:
		l.sugar.Infof(format, args...)
	case LevelWarn:
		l.sugar.Warnf(format, args...)
	case LevelError:
		l.sugar.Errorf(format, args...)
	case LevelCritical:
		// DPanic only panics in development loggers.
		l.sugar.DPanicf(format, args...)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.log(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.log(LevelInfo, format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.log(LevelWarn, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.log(LevelError, format, args...)
}

func (l *Logger) Critical(format string, args ...interface{}) {
	l.log(LevelCritical, format, args...)
}

// Zap exposes the structured logger for callers that want typed fields.
func (l *Logger) Zap() *zap.Logger {
	return l.base.WithOptions(zap.AddCallerSkip(-2))
}

func (l *Logger) Close() error {
	_ = l.base.Sync()
	if l.output != nil {
		return l.output.Close()
	}
	return nil
}

var GlobalLogger = NewNop()

func InitGlobalLogger(level LogLevel, path string) error {
	logger, err := NewLogger(level, path)
	if err != nil {
		return err
	}
	GlobalLogger = logger
	return nil
}

// L returns the structured global logger.
func L() *zap.Logger {
	return GlobalLogger.Zap()
}

func Debug(format string, args ...interface{}) {
	GlobalLogger.log(LevelDebug, format, args...)
}

func Info(format string, args ...interface{}) {
	GlobalLogger.log(LevelInfo, format, args...)
}

func Warn(format string, args ...interface{}) {
	GlobalLogger.log(LevelWarn, format, args...)
}

func Error(format string, args ...interface{}) {
	GlobalLogger.log(LevelError, format, args...)
}

func Critical(format string, args ...interface{}) {
	GlobalLogger.log(LevelCritical, format, args...)
}

func Close() error {
	return GlobalLogger.Close()
}
