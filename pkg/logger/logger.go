// Package logger provides the structured, levelled logger built on log/slog.
//
// WithCtx returns the logger the request middleware stored in the context, so
// every line written while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_id", order.ID.Hex(), "total", order.TotalPrice)
//	// → time=... level=INFO msg="order placed" request_id=3f2c... order_id=... total=28
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Rasmogul/greatsoko/config"
)

var (
	L *slog.Logger

	mu      sync.Mutex
	console slog.Handler
	sink    *MongoHandler
)

func init() {
	console = newConsoleHandler(os.Stdout, config.IsProduction())
	L = slog.New(console)
	slog.SetDefault(L)
}

func newConsoleHandler(w io.Writer, production bool) slog.Handler {
	if production {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// AttachMongo fans every subsequent record out to col as well as the console.
// The returned func flushes pending documents; call it before disconnecting
// the client.
func AttachMongo(col *mongo.Collection) func() {
	mu.Lock()
	defer mu.Unlock()

	if sink != nil {
		return sink.Close
	}
	sink = NewMongoHandler(col)
	L = slog.New(NewMultiHandler(console, sink))
	slog.SetDefault(L)

	return func() {
		mu.Lock()
		defer mu.Unlock()
		if sink == nil {
			return
		}
		sink.Close()
		sink = nil
		L = slog.New(console)
		slog.SetDefault(L)
	}
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
			return log
		}
	}
	return L
}

// InjectLogger stores log into ctx. Called by the request middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }
