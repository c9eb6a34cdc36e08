// Package logging builds the service logger: JSON to a rotating file
// when one is configured, production JSON to stderr otherwise.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New constructs the zap logger. logFile may be empty.
func New(logFile string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(encoderCfg)

	stderr := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), zapcore.InfoLevel)
	if logFile == "" {
		return zap.New(stderr)
	}

	rotating := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	})
	core := zapcore.NewTee(
		stderr,
		zapcore.NewCore(encoder, rotating, zapcore.DebugLevel),
	)
	return zap.New(core)
}
