// Package page is the composition root of an interactive lesson page: it
// creates the store, seeds it from the registry before any widget mounts,
// and owns the widgets mounted on it.
package page

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/store"
)

// Options configures a Page.
type Options struct {
	// Dev enables loud binding diagnostics.
	Dev bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// StoreOptions are passed to store.New after the page's own.
	StoreOptions []store.Option

	// BinderOptions are passed to binding.New after the page's own.
	BinderOptions []binding.Option
}

// Page is one lesson page: a store seeded from a registry, a binder over it,
// and the widgets mounted on it.
type Page struct {
	mu       sync.RWMutex
	registry *registry.Registry

	store  *store.Store
	binder *binding.Binder
	root   *binding.Scope
	queue  *binding.RenderQueue
	logger *slog.Logger
}

// New creates a page for reg. The store is initialized with the registry's
// defaults before New returns, so every widget mounted later reads either a
// default or a value written since.
func New(reg *registry.Registry, opts Options) *Page {
	if reg == nil {
		reg = registry.MustNew()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	storeOpts := append([]store.Option{store.WithLogger(logger.With("component", "store"))}, opts.StoreOptions...)
	st := store.New(storeOpts...)
	seeded := st.Initialize(reg.AllDefaults())

	binderOpts := append([]binding.Option{
		binding.WithDevMode(opts.Dev),
		binding.WithLogger(logger.With("component", "binding")),
	}, opts.BinderOptions...)

	p := &Page{
		registry: reg,
		store:    st,
		binder:   binding.New(st, reg, binderOpts...),
		root:     binding.NewScope(nil),
		queue:    binding.NewRenderQueue(),
		logger:   logger,
	}
	logger.Debug("page initialized", "source", reg.Source(), "variables", reg.Len(), "seeded", seeded)
	return p
}

// Registry returns the current registry.
func (p *Page) Registry() *registry.Registry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.registry
}

// Store returns the page's store.
func (p *Page) Store() *store.Store {
	return p.store
}

// Binder returns the page's binder.
func (p *Page) Binder() *binding.Binder {
	return p.binder
}

// Scope returns the root scope. Scopes created under it are disposed with
// the page.
func (p *Page) Scope() *binding.Scope {
	return p.root
}

// Mount creates a widget under the page, renders it once and returns it.
func (p *Page) Mount(render func(w *binding.Widget)) *binding.Widget {
	w := binding.NewWidget(p.root, p.queue, render)
	w.Render()
	return w
}

// Unmount disposes w, releasing its subscriptions.
func (p *Page) Unmount(w *binding.Widget) {
	if w != nil {
		w.Dispose()
	}
}

// Flush re-renders every widget marked dirty since the last flush and
// returns how many rendered.
func (p *Page) Flush() int {
	return p.queue.Flush()
}

// Reload switches the page to a new registry. Names it adds are seeded with
// their defaults; names that already hold a value keep it, so a reload never
// discards an edit. Returns the number of names seeded.
func (p *Page) Reload(reg *registry.Registry) int {
	if reg == nil {
		return 0
	}
	p.mu.Lock()
	p.registry = reg
	p.mu.Unlock()

	p.binder.SetRegistry(reg)
	seeded := p.store.Initialize(reg.AllDefaults())
	p.logger.Info("declarations reloaded", "source", reg.Source(), "variables", reg.Len(), "seeded", seeded)
	return seeded
}

// Dispose unmounts every widget and disposes the store.
func (p *Page) Dispose() {
	p.root.Dispose()
	p.store.Dispose()
}
