package binding

import (
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// MismatchHook is called when a write is rejected because the value's kind
// does not match the declared kind.
type MismatchHook func(name string, want registry.Kind, got value.Kind)

// Option configures a Binder.
type Option func(*Binder)

// WithDevMode enables loud diagnostics: kind mismatches log at Error level,
// constraint violations and unknown names log warnings.
func WithDevMode(dev bool) Option {
	return func(b *Binder) {
		b.dev = dev
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithTracer sets the tracer used for write spans. Defaults to the global
// OpenTelemetry provider's "lessonvars" tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(b *Binder) {
		if tracer != nil {
			b.tracer = tracer
		}
	}
}

// WithMismatchHook registers a hook for rejected writes.
func WithMismatchHook(hook MismatchHook) Option {
	return func(b *Binder) {
		b.onMismatch = hook
	}
}
