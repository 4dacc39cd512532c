package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the process wide logger used by the cmd binaries
	Log *zap.Logger
)

// New builds a JSON logger at the given level
func New(level string) (*zap.Logger, error) {
	// Parse the log level
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Disable stack traces
	config.EncoderConfig.StacktraceKey = ""

	return config.Build()
}

// Init initializes the process wide logger with the given log level
func Init(level string) error {
	logger, err := New(level)
	if err != nil {
		return err
	}
	Log = logger
	return nil
}

// GetLogger returns the process wide logger
func GetLogger() *zap.Logger {
	if Log == nil {
		// If logger is not initialized, create a default production logger
		var err error
		Log, err = zap.NewProduction(zap.WithCaller(false))
		if err != nil {
			panic(err)
		}
	}
	return Log
}

// Sync flushes any buffered log entries
func Sync() error {
	if Log == nil {
		return nil
	}
	return Log.Sync()
}
