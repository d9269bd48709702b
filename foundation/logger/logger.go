// Package logger provides a convenience function to constructing a logger
// for use. This is required not just for the application but also
// for any supporting library that is also using the zap package.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New constructs a Sugared Logger that writes to stdout only and is
// configured for the service name. NewWithFile adds a rotating file sink.
func New(service string) (*zap.SugaredLogger, error) {
	return NewWithFile(service, "")
}

// NewWithFile behaves like New but additionally writes to the given file
// path through lumberjack, rotating it once it grows past a fixed size.
func NewWithFile(service string, filePath string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = zapcore.ISO8601TimeEncoder
	encoder := zapcore.NewJSONEncoder(config)

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if filePath != "" {
		rotate := &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
		syncers = append(syncers, zapcore.AddSync(rotate))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), zapcore.DebugLevel)

	log := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).With(
		zap.String("service", service),
	)

	return log.Sugar(), nil
}
