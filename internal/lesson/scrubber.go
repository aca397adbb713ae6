package lesson

import (
	"context"
	"fmt"
	"strconv"

	"github.com/vango-dev/lessonvars/pkg/binding"
	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// Scrubber is the input side of an inline number: it reads and writes one
// declared number variable and keeps the values it writes legal.
//
// The definition is looked up on every call, so a registry swapped in by a
// reload takes effect immediately.
type Scrubber struct {
	binder *binding.Binder
	name   string
}

// NewScrubber binds a scrubber to the declared number variable name.
func NewScrubber(b *binding.Binder, name string) (*Scrubber, error) {
	s := &Scrubber{binder: b, name: name}
	if _, err := s.definition(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Scrubber) definition() (registry.Definition, error) {
	def, ok := s.binder.Registry().DefinitionOf(s.name)
	if !ok {
		return registry.Definition{}, fmt.Errorf("scrubber: %q is not declared", s.name)
	}
	if def.Kind != registry.KindNumber {
		return registry.Definition{}, fmt.Errorf("scrubber: %q is %s, not number", s.name, def.Kind)
	}
	return def, nil
}

func fallbackOf(def registry.Definition) float64 {
	n, _ := def.Default.AsNumber()
	return n
}

// Value returns the variable's current value.
func (s *Scrubber) Value() float64 {
	def, _ := s.definition()
	fallback := fallbackOf(def)
	n, ok := s.binder.Read(s.name, value.Number(fallback)).AsNumber()
	if !ok {
		return fallback
	}
	return n
}

// Display returns the current value with its unit, e.g. "45°".
func (s *Scrubber) Display() string {
	def, _ := s.definition()
	return strconv.FormatFloat(s.Value(), 'f', -1, 64) + def.Unit
}

// Nudge moves the value by steps declared steps (negative steps move down).
// The read and the write happen as one update, so concurrent nudges add up.
func (s *Scrubber) Nudge(ctx context.Context, steps int) error {
	def, err := s.definition()
	if err != nil {
		return err
	}
	step := 1.0
	if def.Step != nil {
		step = *def.Step
	}
	fallback := fallbackOf(def)
	return s.binder.UpdateVariable(ctx, s.name, value.Number(fallback), func(cur value.Value) value.Value {
		n, ok := cur.AsNumber()
		if !ok {
			n = fallback
		}
		return binding.Clamp(def, value.Number(n+float64(steps)*step))
	})
}

// DragTo writes target, snapped to the declared step and bounds.
func (s *Scrubber) DragTo(ctx context.Context, target float64) error {
	def, err := s.definition()
	if err != nil {
		return err
	}
	return s.binder.SetVariable(ctx, s.name, binding.Clamp(def, value.Number(target)))
}
