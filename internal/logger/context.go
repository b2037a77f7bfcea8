package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey struct{}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request logger, or fallback when ctx has none.
// A nil fallback yields a no-op logger.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}

// With stores a logger enriched with fields, derived from the one already in
// ctx or from fallback.
func With(ctx context.Context, fallback *zap.Logger, fields ...zap.Field) context.Context {
	return NewContext(ctx, FromContext(ctx, fallback).With(fields...))
}
