package registry

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/vango-dev/lessonvars/pkg/value"
)

// Kind is the semantic type an author declares for a variable. It is richer
// than value.Kind: a select variable holds text drawn from a fixed set.
type Kind string

const (
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindBool   Kind = "boolean"
	KindSelect Kind = "select"
	KindArray  Kind = "array"
	KindObject Kind = "object"
)

// ParseKind maps a declaration string to a Kind.
// "bool" is accepted as an alias for "boolean".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return KindNumber, nil
	case "text":
		return KindText, nil
	case "boolean", "bool":
		return KindBool, nil
	case "select":
		return KindSelect, nil
	case "array":
		return KindArray, nil
	case "object":
		return KindObject, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// Accepts reports whether a value carrying tag vk may be stored in a
// variable of kind k.
func (k Kind) Accepts(vk value.Kind) bool {
	switch k {
	case KindNumber:
		return vk == value.KindNumber
	case KindText, KindSelect:
		return vk == value.KindText
	case KindBool:
		return vk == value.KindBool
	case KindArray:
		return vk == value.KindArray
	case KindObject:
		return vk == value.KindObject
	}
	return false
}

// InferKind returns the declared kind that matches a default value when the
// author left kind out.
func InferKind(v value.Value) Kind {
	switch v.Kind() {
	case value.KindText:
		return KindText
	case value.KindBool:
		return KindBool
	case value.KindArray:
		return KindArray
	case value.KindObject:
		return KindObject
	default:
		return KindNumber
	}
}

// Definition is the immutable metadata declared for one variable.
type Definition struct {
	Default     value.Value
	Label       string
	Description string
	Kind        Kind
	Unit        string

	// Min, Max and Step apply to number variables only.
	Min  *float64
	Max  *float64
	Step *float64

	// Options applies to select variables only.
	Options []string

	Placeholder string

	// Schema documents the expected shape of an object variable.
	Schema string
}

// Float returns a pointer to f, for filling Min, Max and Step in literals.
func Float(f float64) *float64 {
	return &f
}

// Validate checks the kind invariants of d.
func (d Definition) Validate() error {
	if !d.Kind.Accepts(d.Default.Kind()) {
		if d.Kind == "" {
			return fmt.Errorf("kind is required")
		}
		return fmt.Errorf("default %s is %s, kind %s requires %s",
			d.Default, d.Default.Kind(), d.Kind, expectedTag(d.Kind))
	}

	if d.Kind != KindNumber && (d.Min != nil || d.Max != nil || d.Step != nil) {
		return fmt.Errorf("min/max/step are only valid for number variables, kind is %s", d.Kind)
	}
	if d.Kind != KindSelect && len(d.Options) > 0 {
		return fmt.Errorf("options are only valid for select variables, kind is %s", d.Kind)
	}

	switch d.Kind {
	case KindNumber:
		for _, b := range []struct {
			name string
			v    *float64
		}{{"min", d.Min}, {"max", d.Max}, {"step", d.Step}} {
			if b.v != nil && (math.IsNaN(*b.v) || math.IsInf(*b.v, 0)) {
				return fmt.Errorf("%s must be finite, got %g", b.name, *b.v)
			}
		}
		n, _ := d.Default.AsNumber()
		if d.Min != nil && d.Max != nil && *d.Min > *d.Max {
			return fmt.Errorf("min %g is greater than max %g", *d.Min, *d.Max)
		}
		if d.Min != nil && n < *d.Min {
			return fmt.Errorf("default %g is below min %g", n, *d.Min)
		}
		if d.Max != nil && n > *d.Max {
			return fmt.Errorf("default %g is above max %g", n, *d.Max)
		}
		if d.Step != nil && *d.Step <= 0 {
			return fmt.Errorf("step must be positive, got %g", *d.Step)
		}
	case KindSelect:
		if len(d.Options) == 0 {
			return fmt.Errorf("select variables need at least one option")
		}
		s, _ := d.Default.AsText()
		if !slices.Contains(d.Options, s) {
			return fmt.Errorf("default %q is not one of the options %v", s, d.Options)
		}
	}
	return nil
}

// Check reports whether v satisfies the declared constraints beyond its tag:
// range for numbers and membership for selects. It does not check the tag.
func (d Definition) Check(v value.Value) error {
	switch d.Kind {
	case KindNumber:
		n, ok := v.AsNumber()
		if !ok {
			return nil
		}
		if d.Min != nil && n < *d.Min {
			return fmt.Errorf("%g is below min %g", n, *d.Min)
		}
		if d.Max != nil && n > *d.Max {
			return fmt.Errorf("%g is above max %g", n, *d.Max)
		}
	case KindSelect:
		s, ok := v.AsText()
		if !ok {
			return nil
		}
		if !slices.Contains(d.Options, s) {
			return fmt.Errorf("%q is not one of %v", s, d.Options)
		}
	}
	return nil
}

func (d Definition) clone() Definition {
	out := d
	out.Default = d.Default.Clone()
	if d.Min != nil {
		out.Min = Float(*d.Min)
	}
	if d.Max != nil {
		out.Max = Float(*d.Max)
	}
	if d.Step != nil {
		out.Step = Float(*d.Step)
	}
	if d.Options != nil {
		out.Options = slices.Clone(d.Options)
	}
	return out
}

func expectedTag(k Kind) string {
	switch k {
	case KindNumber:
		return "a number"
	case KindText, KindSelect:
		return "text"
	case KindBool:
		return "a boolean"
	case KindArray:
		return "an array of numbers"
	case KindObject:
		return "an object"
	}
	return "a known kind"
}
