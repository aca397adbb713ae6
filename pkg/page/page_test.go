package page

import (
	"context"
	"testing"

	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

func sineRegistry() *registry.Registry {
	return registry.MustNew(registry.Entry{Name: "sineAngle", Definition: registry.Definition{
		Default: value.Number(45),
		Label:   "Angle",
		Kind:    registry.KindNumber,
		Unit:    "°",
		Min:     registry.Float(0),
		Max:     registry.Float(360),
		Step:    registry.Float(5),
	}})
}

// angleWidget mounts a widget that records every angle it renders with.
func angleWidget(p *Page, seen *[]float64) *binding.Widget {
	return p.Mount(func(w *binding.Widget) {
		n, _ := p.Binder().UseVariable(w.Scope(), w, "sineAngle", value.Number(0)).AsNumber()
		*seen = append(*seen, n)
	})
}

func TestSineAngleScenario(t *testing.T) {
	p := New(sineRegistry(), Options{})
	defer p.Dispose()

	var a []float64
	angleWidget(p, &a)
	if len(a) != 1 || a[0] != 45 {
		t.Fatalf("widget A first render saw %v, want [45]", a)
	}

	if err := p.Binder().SetVariable(context.Background(), "sineAngle", value.Number(90)); err != nil {
		t.Fatal(err)
	}
	p.Flush()
	if len(a) != 2 || a[1] != 90 {
		t.Errorf("widget A after write saw %v, want [45 90]", a)
	}

	var b []float64
	angleWidget(p, &b)
	if len(b) != 1 || b[0] != 90 {
		t.Errorf("widget B mounted later saw %v, want [90]", b)
	}

	if seeded := p.Reload(sineRegistry()); seeded != 0 {
		t.Errorf("reload seeded %d names", seeded)
	}
	if got, _ := p.Store().Get("sineAngle"); !got.Equal(value.Number(90)) {
		t.Errorf("reload reset sineAngle to %v", got)
	}
}

func TestUnknownNameUsesFallback(t *testing.T) {
	p := New(sineRegistry(), Options{})
	defer p.Dispose()

	var got value.Value
	p.Mount(func(w *binding.Widget) {
		got = p.Binder().UseVariable(w.Scope(), w, "cosineAngle", value.Number(30))
	})
	if !got.Equal(value.Number(30)) {
		t.Errorf("unknown name read %v, want fallback 30", got)
	}
}

func TestUnmountStopsRenders(t *testing.T) {
	p := New(sineRegistry(), Options{})
	defer p.Dispose()

	var seen []float64
	w := angleWidget(p, &seen)
	p.Unmount(w)
	p.Unmount(nil)

	_ = p.Binder().SetVariable(context.Background(), "sineAngle", value.Number(90))
	if n := p.Flush(); n != 0 {
		t.Errorf("Flush rendered %d widgets after unmount", n)
	}
	if p.Store().SubscriberCount("sineAngle") != 0 {
		t.Error("unmounted widget still subscribed")
	}
}

func TestReloadSeedsNewNames(t *testing.T) {
	p := New(sineRegistry(), Options{})
	defer p.Dispose()

	next := registry.MustNew(
		registry.Entry{Name: "sineAngle", Definition: registry.Definition{Default: value.Number(0), Kind: registry.KindNumber}},
		registry.Entry{Name: "amplitude", Definition: registry.Definition{Default: value.Number(1), Kind: registry.KindNumber}},
	)

	if seeded := p.Reload(next); seeded != 1 {
		t.Errorf("Reload seeded %d, want 1", seeded)
	}
	if p.Registry() != next || p.Binder().Registry() != next {
		t.Error("registry not swapped")
	}
	if got, _ := p.Store().Get("sineAngle"); !got.Equal(value.Number(45)) {
		t.Errorf("existing value changed to %v", got)
	}
	if p.Reload(nil) != 0 || p.Registry() != next {
		t.Error("Reload(nil) should be a no-op")
	}
}

func TestDispose(t *testing.T) {
	p := New(sineRegistry(), Options{})
	var seen []float64
	w := angleWidget(p, &seen)

	p.Dispose()

	if !w.Scope().IsDisposed() || !p.Store().IsDisposed() {
		t.Error("Dispose should dispose widgets and store")
	}
}

func TestNilRegistry(t *testing.T) {
	p := New(nil, Options{})
	defer p.Dispose()
	if p.Registry().Len() != 0 || p.Store().Len() != 0 {
		t.Error("nil registry should produce an empty page")
	}
}
