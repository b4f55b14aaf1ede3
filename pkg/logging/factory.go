package logging

import (
	"context"
	"sync"
)

// LoggerFactory replaces the default logrus logger, e.g. for an embedding
// host that routes logs elsewhere.
type LoggerFactory interface {
	CreateLogger(ctx context.Context) Logger
}

type LoggerFactoryFunc func(ctx context.Context) Logger

func (f LoggerFactoryFunc) CreateLogger(ctx context.Context) Logger {
	return f(ctx)
}

var (
	loggerFactoryMu sync.RWMutex
	loggerFactory   LoggerFactory
)

func SetLoggerFactory(factory LoggerFactory) {
	loggerFactoryMu.Lock()
	defer loggerFactoryMu.Unlock()

	loggerFactory = factory
}

func GetLoggerFactory() LoggerFactory {
	loggerFactoryMu.RLock()
	defer loggerFactoryMu.RUnlock()

	return loggerFactory
}

type fieldsKey struct{}

// ContextWithFields returns a ctx whose loggers carry fields on every line.
// Fields already on ctx are kept unless overwritten.
func ContextWithFields(ctx context.Context, fields map[string]any) context.Context {
	merged := map[string]any{}
	for k, v := range FieldsFrom(ctx) {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// FieldsFrom returns the fields set by ContextWithFields. The map must not be modified.
func FieldsFrom(ctx context.Context) map[string]any {
	if ctx == nil {
		return nil
	}
	fields, _ := ctx.Value(fieldsKey{}).(map[string]any)
	return fields
}
