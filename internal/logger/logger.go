package logger

import (
	"go.uber.org/zap"
)

var sugar *zap.SugaredLogger

func Init() {
	l, err := zap.NewProduction(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	sugar = l.Sugar()
}

// InitDevelopment switches to the human-readable encoder, used by tests.
func InitDevelopment() {
	l, err := zap.NewDevelopment(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
	sugar = l.Sugar()
}

// Desugared exposes the underlying zap logger for components that emit
// structured records directly.
func Desugared() *zap.Logger {
	return sugar.Desugar()
}

func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}

func Info(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

func Infof(format string, v ...interface{}) {
	sugar.Infof(format, v...)
}

func Error(msg string, keysAndValues ...interface{}) {
	sugar.Errorw(msg, keysAndValues...)
}

func Errorf(format string, v ...interface{}) {
	sugar.Errorf(format, v...)
}

func Warn(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

func Debugf(format string, v ...interface{}) {
	sugar.Debugf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	sugar.Fatalf(format, v...)
}
