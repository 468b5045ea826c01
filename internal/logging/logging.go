// Package logging owns the process-wide zap logger and the request-scoped
// loggers handed out by the HTTP middleware.
package logging

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log level, encoding, and destination.
type Config struct {
	Level      string // debug, info, warn, or error; anything else means info
	Format     string // json or console
	OutputPath string // stdout, stderr, or a file path; empty means stderr
}

var (
	mu    sync.RWMutex
	base  *zap.Logger
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func newEncoder(format string) zapcore.Encoder {
	if format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

func replace(l *zap.Logger) {
	mu.Lock()
	base = l
	mu.Unlock()
}

// Init builds the process logger from cfg. Call it once at startup, before
// anything logs.
func Init(cfg Config) error {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	level.SetLevel(lvl)

	path := cfg.OutputPath
	if path == "" {
		path = "stderr"
	}
	sink, _, err := zap.Open(path)
	if err != nil {
		return err
	}

	core := zapcore.NewCore(newEncoder(cfg.Format), sink, level)
	replace(zap.New(core,
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	))
	return nil
}

// InitDefault wires a plain production logger so packages can log before
// Init runs. Tests rely on it.
func InitDefault() {
	l, _ := zap.NewProduction(zap.AddCallerSkip(1))
	replace(l)
}

// SetLevel adjusts the level at runtime. Unknown names are ignored.
func SetLevel(name string) {
	if lvl, err := zapcore.ParseLevel(name); err == nil {
		level.SetLevel(lvl)
	}
}

// L returns the process logger, installing the default one on first use.
func L() *zap.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	InitDefault()
	mu.RLock()
	l = base
	mu.RUnlock()
	return l
}

// S returns the sugared form of L.
func S() *zap.SugaredLogger { return L().Sugar() }

// Sync flushes buffered entries. Safe to call before Init.
func Sync() error {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l == nil {
		return nil
	}
	return l.Sync()
}

// Debug emits msg at debug level.
func Debug(msg string, fields ...zap.Field) { L().Debug(msg, fields...) }

// Info emits msg at info level.
func Info(msg string, fields ...zap.Field) { L().Info(msg, fields...) }

// Warn emits msg at warn level.
func Warn(msg string, fields ...zap.Field) { L().Warn(msg, fields...) }

// Error emits msg at error level.
func Error(msg string, fields ...zap.Field) { L().Error(msg, fields...) }

// Fatal emits msg and exits the process.
func Fatal(msg string, fields ...zap.Field) { L().Fatal(msg, fields...) }

type ctxKey int

const (
	ctxLogger ctxKey = iota
	ctxRequestID
)

// FromContext returns the request-scoped logger installed by Middleware.
// Outside a request it falls back to the process logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxLogger).(*zap.Logger); ok {
		return l
	}
	return L()
}

// WithRequestID derives a context carrying the ID and a child logger that
// tags every entry with it.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, ctxRequestID, id)
	return context.WithValue(ctx, ctxLogger,
		FromContext(ctx).With(zap.String("request_id", id)))
}

// GetRequestID reports the request ID set by Middleware, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxRequestID).(string)
	return id
}

// statusRecorder notes the status code and body bytes a handler writes.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(p []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(p)
	sr.bytes += n
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
// Streaming handlers assert for http.Flusher on the writer they receive.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the wrapped writer for http.ResponseController.
func (sr *statusRecorder) Unwrap() http.ResponseWriter { return sr.ResponseWriter }

// Middleware assigns each request an ID, installs a request-scoped logger in
// the context, and writes one completion line per request. An incoming
// X-Request-ID header is reused so IDs survive proxy hops.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		ctx := WithRequestID(r.Context(), id)
		log := FromContext(ctx).With(
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		log.Debug("request started", zap.String("remote_addr", r.RemoteAddr))

		rec := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(ctx))

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		log.Info("request completed",
			zap.Int("status", status),
			zap.Int("bytes", rec.bytes),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
