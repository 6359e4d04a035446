package logctx

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ctxKey string

const (
	// LoggerKey is the gin.Context key and context value key of the request logger.
	LoggerKey = "logger"
	// TraceIDKey carries the request trace id.
	TraceIDKey = "traceID"
	// OrderNoKey carries the order number being processed.
	OrderNoKey ctxKey = "order_no"
)

// FromGin returns a request-scoped logger from gin.Context if present,
// otherwise returns the provided base logger.
func FromGin(c *gin.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if c == nil {
		return base
	}
	if l, ok := c.Get(LoggerKey); ok {
		if lg, ok := l.(*zap.SugaredLogger); ok && lg != nil {
			return lg
		}
	}
	if c.Request == nil {
		return base
	}
	return FromCtx(c.Request.Context(), base)
}

// FromCtx returns a logger from context if set, otherwise attempts to enrich
// base with trace_id/order_no from context values.
func FromCtx(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if ctx == nil {
		return base
	}
	if lg, ok := ctx.Value(LoggerKey).(*zap.SugaredLogger); ok && lg != nil {
		return lg
	}
	var fields []interface{}
	if tid, ok := ctx.Value(TraceIDKey).(string); ok && tid != "" {
		fields = append(fields, "trace_id", tid)
	}
	if no, ok := ctx.Value(OrderNoKey).(string); ok && no != "" {
		fields = append(fields, "order_no", no)
	}
	if len(fields) > 0 {
		return base.With(fields...)
	}
	return base
}

// WithOrderNo tags ctx with the order number for downstream loggers.
func WithOrderNo(ctx context.Context, orderNo string) context.Context {
	return context.WithValue(ctx, OrderNoKey, orderNo)
}

// TraceID returns the trace id stored in ctx, if any.
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	tid, _ := ctx.Value(TraceIDKey).(string)
	return tid
}
