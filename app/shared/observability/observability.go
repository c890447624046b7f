// Package observability builds the logger, tracer and metrics handed to every
// module.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const ServiceName = "pingpong-bot"

// Config selects log level and labels.
type Config struct {
	Environment string
	LogLevel    string
	Version     string
}

// Observability bundles the shared telemetry handles.
type Observability struct {
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Registry *prometheus.Registry
	Metrics  Metrics
}

// New builds a JSON logger on stdout, a tracer from the global provider and
// a fresh prometheus registry.
func New(cfg Config) Observability {
	return NewWithWriter(cfg, os.Stdout)
}

// NewWithWriter is New with an explicit log destination.
func NewWithWriter(cfg Config, w io.Writer) Observability {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return Observability{
		Logger:   NewLogger(cfg, w),
		Tracer:   otel.Tracer(ServiceName),
		Registry: reg,
		Metrics:  NewPrometheusMetrics(reg, "pingpong"),
	}
}

// NewLogger returns a JSON slog logger tagged with service and environment.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(cfg.LogLevel)})
	logger := slog.New(h).With(
		slog.String("service", ServiceName),
		slog.String("environment", cfg.Environment),
	)
	if cfg.Version != "" {
		logger = logger.With(slog.String("version", cfg.Version))
	}
	return logger
}

// ParseLevel maps a config string to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CorrelationID returns the watermill correlation id carried in ctx as a log
// attribute.
func CorrelationID(ctx context.Context) slog.Attr {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return slog.String(middleware.CorrelationIDMetadataKey, id)
}

type correlationIDKey struct{}

// WithCorrelationID stores a correlation id for CorrelationID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// CorrelationIDFrom returns the correlation id stored in ctx.
func CorrelationIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}
