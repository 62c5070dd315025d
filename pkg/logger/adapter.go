package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerAdapter joins the console logger with the categorized file logger.
// The file logger is optional; without it everything goes to the console.
type LoggerAdapter struct {
	console     *zap.Logger
	multiLogger *MultiLogger
}

// NewLoggerAdapter creates a new logger adapter; multiLogger may be nil
func NewLoggerAdapter(console *zap.Logger, multiLogger *MultiLogger) *LoggerAdapter {
	if console == nil {
		console = zap.NewNop()
	}
	return &LoggerAdapter{
		console:     console,
		multiLogger: multiLogger,
	}
}

// General returns the console logger
func (la *LoggerAdapter) General() *zap.Logger {
	return la.console
}

// Batch returns a logger that writes to the console and the batch log
func (la *LoggerAdapter) Batch() *zap.Logger {
	if la.multiLogger == nil {
		return la.console
	}
	return la.tee(la.multiLogger.Batch())
}

// LogError logs an error to the console and the error log
func (la *LoggerAdapter) LogError(msg string, fields ...zap.Field) {
	la.console.Error(msg, fields...)
	if la.multiLogger != nil {
		la.multiLogger.LogAppError(msg, fields...)
	}
}

// GetMultiLogger returns the underlying multi-logger (may be nil)
func (la *LoggerAdapter) GetMultiLogger() *MultiLogger {
	return la.multiLogger
}

// Sync flushes all loggers
func (la *LoggerAdapter) Sync() error {
	err := la.console.Sync()
	if la.multiLogger != nil {
		if mErr := la.multiLogger.Sync(); mErr != nil {
			err = mErr
		}
	}
	return err
}

func (la *LoggerAdapter) tee(other *zap.Logger) *zap.Logger {
	return la.console.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, other.Core())
	}))
}
