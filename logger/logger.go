package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const logLevelEnv = "LOG_LEVEL"

func NewProductionLogger() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(levelFromEnv())
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return config.Build()
}

func Suggar(logger *zap.Logger) *zap.SugaredLogger {
	return logger.Sugar()
}

// levelFromEnv falls back to debug when LOG_LEVEL is unset or malformed
func levelFromEnv() zapcore.Level {
	level, err := zapcore.ParseLevel(os.Getenv(logLevelEnv))
	if err != nil || os.Getenv(logLevelEnv) == "" {
		return zapcore.DebugLevel
	}
	return level
}
