package binding

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/lessonvars/internal/errors"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/store"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// TracerName is the instrumentation name of the default tracer.
const TracerName = "lessonvars"

// ErrKindMismatch is wrapped by the error SetVariable returns when a value's
// kind does not match the declared kind.
var ErrKindMismatch = stderrors.New("value kind does not match declared kind")

// Binder connects widgets to a store. It validates writes against the
// registry and subscribes widgets to the variables they read.
type Binder struct {
	store    *store.Store
	registry atomic.Pointer[registry.Registry]

	dev        bool
	logger     *slog.Logger
	tracer     trace.Tracer
	onMismatch MismatchHook

	// warned holds unknown names already reported in dev mode.
	warned sync.Map
}

// New creates a binder over st. reg may be nil, in which case every name is
// treated as undeclared and no write is validated.
func New(st *store.Store, reg *registry.Registry, opts ...Option) *Binder {
	b := &Binder{
		store:  st,
		logger: slog.Default().With("component", "binding"),
		tracer: otel.Tracer(TracerName),
	}
	if reg == nil {
		reg = registry.MustNew()
	}
	b.registry.Store(reg)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Store returns the underlying store.
func (b *Binder) Store() *store.Store {
	return b.store
}

// Registry returns the registry writes are validated against.
func (b *Binder) Registry() *registry.Registry {
	return b.registry.Load()
}

// SetRegistry swaps the registry used for validation. Stored values are not
// touched.
func (b *Binder) SetRegistry(reg *registry.Registry) {
	if reg == nil {
		return
	}
	b.registry.Store(reg)
	b.warned.Range(func(k, _ any) bool {
		b.warned.Delete(k)
		return true
	})
}

// UseVariable subscribes l to name for the lifetime of scope and returns the
// current value, or fallback if name was never set.
//
// Calling UseVariable again with the same scope, listener and name (as a
// widget does on every render) does not add a second subscription. The
// subscription is released when scope is disposed. A nil scope or listener
// reads without subscribing.
//
// Example:
//
//	angle := b.UseVariable(w.Scope(), w, "sineAngle", value.Number(45))
func (b *Binder) UseVariable(scope *Scope, l Listener, name string, fallback value.Value) value.Value {
	if scope != nil && l != nil {
		scope.bind(bindingKey{listener: l.ID(), name: name}, func() *store.Subscription {
			return b.store.Subscribe(name, func(value.Value) { l.MarkDirty() })
		})
	}
	b.warnUnknown(name)
	return b.Read(name, fallback)
}

// Watch subscribes fn to name for the lifetime of scope. Unlike
// UseVariable, fn receives every new value and each call adds a
// subscription.
func (b *Binder) Watch(scope *Scope, name string, fn func(value.Value)) *store.Subscription {
	sub := b.store.Subscribe(name, fn)
	if scope != nil {
		scope.Track(sub)
	}
	return sub
}

// Read returns the current value of name, or fallback, without subscribing.
func (b *Binder) Read(name string, fallback value.Value) value.Value {
	if v, ok := b.store.Get(name); ok {
		return v
	}
	return fallback
}

// SetVariable writes v to name.
//
// If name is declared and v's kind does not match the declared kind, the
// write is rejected and an E301 error wrapping ErrKindMismatch is returned.
// Values outside a declared range or option list are accepted; in dev mode
// they are reported as E302 warnings. Undeclared names are written as is.
func (b *Binder) SetVariable(ctx context.Context, name string, v value.Value) error {
	_, span := b.tracer.Start(ctx, "lessonvars.set",
		trace.WithAttributes(
			attribute.String("lessonvars.variable", name),
			attribute.String("lessonvars.kind", v.Kind().String()),
		))
	defer span.End()

	def, declared := b.Registry().DefinitionOf(name)
	if declared {
		if !def.Kind.Accepts(v.Kind()) {
			err := b.rejectMismatch(name, def, v)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Message)
			return err
		}
		if b.dev {
			b.checkConstraints(span, name, def, v)
		}
	}

	span.SetAttributes(attribute.Bool("lessonvars.declared", declared))
	b.store.Set(name, v)
	return nil
}

// UpdateVariable atomically replaces the value of name with fn applied to
// its current value (fallback if unset). The result is validated like a
// SetVariable write: a kind mismatch leaves the value untouched and returns
// an E301 error. fn runs under the store's lock and must not call back into
// the store or the binder.
func (b *Binder) UpdateVariable(ctx context.Context, name string, fallback value.Value, fn func(value.Value) value.Value) error {
	_, span := b.tracer.Start(ctx, "lessonvars.update",
		trace.WithAttributes(attribute.String("lessonvars.variable", name)))
	defer span.End()

	def, declared := b.Registry().DefinitionOf(name)

	var (
		next     value.Value
		mismatch bool
	)
	wrote := b.store.UpdateIf(name, fallback, func(cur value.Value) (value.Value, bool) {
		next = fn(cur)
		mismatch = declared && !def.Kind.Accepts(next.Kind())
		return next, !mismatch
	})
	span.SetAttributes(attribute.Bool("lessonvars.declared", declared))

	if mismatch {
		err := b.rejectMismatch(name, def, next)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Message)
		return err
	}
	if !wrote {
		// The store was disposed.
		return nil
	}
	span.SetAttributes(attribute.String("lessonvars.kind", next.Kind().String()))
	if declared && b.dev {
		b.checkConstraints(span, name, def, next)
	}
	return nil
}

// checkConstraints reports an accepted value outside the declared range or
// options as an E302 warning.
func (b *Binder) checkConstraints(span trace.Span, name string, def registry.Definition, v value.Value) {
	cerr := def.Check(v)
	if cerr == nil {
		return
	}
	err := errors.New("E302").WithVariable(name).Wrap(cerr)
	b.logger.Warn(err.Message,
		"code", err.Code,
		"variable", name,
		"value", v.String(),
		"reason", cerr.Error())
	span.AddEvent("constraint violation",
		trace.WithAttributes(attribute.String("reason", cerr.Error())))
}

func (b *Binder) rejectMismatch(name string, def registry.Definition, v value.Value) *errors.Error {
	err := errors.New("E301").
		WithVariable(name).
		WithDetail(fmt.Sprintf("%q is declared as %s but the value %s is %s.", name, def.Kind, v, v.Kind())).
		Wrap(ErrKindMismatch)

	if b.onMismatch != nil {
		b.onMismatch(name, def.Kind, v.Kind())
	}

	if b.dev {
		b.logger.Error(err.Message,
			"code", err.Code,
			"variable", name,
			"declared", string(def.Kind),
			"got", v.Kind().String(),
			"value", v.String(),
			"default", def.Default.String(),
			"label", def.Label)
	} else {
		b.logger.Debug(err.Message,
			"code", err.Code,
			"variable", name,
			"declared", string(def.Kind),
			"got", v.Kind().String())
	}
	return err
}

// warnUnknown reports a read of an undeclared name once per name in dev mode.
func (b *Binder) warnUnknown(name string) {
	if !b.dev || b.Registry().Has(name) {
		return
	}
	if _, loaded := b.warned.LoadOrStore(name, struct{}{}); loaded {
		return
	}
	b.logger.Warn("variable is not declared", "variable", name)
}
