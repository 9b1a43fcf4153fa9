// Package logger provides the service-wide structured logger built on log/slog.
//
// Handlers should log through WithCtx so every line carries the request ID
// attached by the Logger middleware:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("payment recorded", "transaction_id", p.TransactionID)
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bistroboss/bistro/config"
)

var L *slog.Logger

func init() {
	L = slog.New(newHandler(os.Stdout, config.IsProduction()))
	slog.SetDefault(L)
}

// newHandler picks JSON output for production log shipping and text output
// everywhere else.
func newHandler(w io.Writer, production bool) slog.Handler {
	if production {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Use replaces the base logger, e.g. to fan out into the Mongo handler.
func Use(h slog.Handler) {
	L = slog.New(h)
	slog.SetDefault(L)
}

// Handler returns the handler behind the base logger.
func Handler() slog.Handler { return L.Handler() }

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a request-scoped logger in ctx.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
