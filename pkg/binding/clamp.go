package binding

import (
	"math"
	"slices"

	"github.com/vango-dev/lessonvars/pkg/registry"
	"github.com/vango-dev/lessonvars/pkg/value"
)

// Clamp snaps v to the constraints of def, for input widgets that must only
// produce legal values. Numbers are rounded to the nearest step (counted from
// min, or 0 without one) and then bounded by min and max. A select value that
// is not an option becomes the default. Anything else is returned unchanged.
//
// The store itself never clamps.
func Clamp(def registry.Definition, v value.Value) value.Value {
	switch def.Kind {
	case registry.KindNumber:
		n, ok := v.AsNumber()
		if !ok {
			return v
		}
		if def.Step != nil && *def.Step > 0 {
			step := *def.Step
			base := 0.0
			if def.Min != nil {
				base = *def.Min
			}
			n = base + math.Round((n-base)/step)*step
			// Undo float noise such as 0.30000000000000004.
			n = math.Round(n*1e9) / 1e9
		}
		if def.Min != nil && n < *def.Min {
			n = *def.Min
		}
		if def.Max != nil && n > *def.Max {
			n = *def.Max
		}
		return value.Number(n)
	case registry.KindSelect:
		s, ok := v.AsText()
		if ok && !slices.Contains(def.Options, s) {
			return def.Default
		}
	}
	return v
}
