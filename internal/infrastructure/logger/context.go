package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	merchantIDKey
)

// ContextWithRequestID stores the request id for log correlation. The HTTP
// request-id middleware is the producer.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id, or "" when none was set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithMerchantID stores the acting merchant id for log correlation.
func ContextWithMerchantID(ctx context.Context, merchantID string) context.Context {
	return context.WithValue(ctx, merchantIDKey, merchantID)
}

// MerchantIDFromContext returns the merchant id, or "" when none was set.
func MerchantIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(merchantIDKey).(string)
	return id
}

// ContextLogger decorates a base logger with the correlation identifiers
// carried by a context: trace_id and span_id from the active span, plus
// request_id and merchant_id when the middleware stored them.
type ContextLogger struct {
	ctx  context.Context
	base *zap.Logger
}

// For binds a base logger to a request context. Services hold their own
// *zap.Logger and call For(ctx, ...) per operation so every entry lines up
// with the request and trace that produced it.
func For(ctx context.Context, base *zap.Logger) *ContextLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &ContextLogger{ctx: ctx, base: base}
}

// With returns a child ContextLogger carrying extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, base: cl.base.With(fields...)}
}

// Debug logs at debug level with correlation fields attached.
func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) {
	cl.enriched().Debug(msg, fields...)
}

// Info logs at info level with correlation fields attached.
func (cl *ContextLogger) Info(msg string, fields ...zap.Field) {
	cl.enriched().Info(msg, fields...)
}

// Warn logs at warn level with correlation fields attached.
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field) {
	cl.enriched().Warn(msg, fields...)
}

// Error logs at error level with correlation fields attached.
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) {
	cl.enriched().Error(msg, fields...)
}

func (cl *ContextLogger) enriched() *zap.Logger {
	l := cl.base
	if sc := trace.SpanFromContext(cl.ctx).SpanContext(); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := RequestIDFromContext(cl.ctx); id != "" {
		l = l.With(zap.String("request_id", id))
	}
	if id := MerchantIDFromContext(cl.ctx); id != "" {
		l = l.With(zap.String("merchant_id", id))
	}
	return l
}
