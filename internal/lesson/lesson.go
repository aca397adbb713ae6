// Package lesson holds the content of the sine wave lesson: its variable
// declarations, its blocks and the geometry of its unit circle plot.
package lesson

import (
	_ "embed"

	"github.com/vango-dev/lessonvars/pkg/registry"
)

// SineAngle is the variable shared by the scrubber and the plot.
const SineAngle = "sineAngle"

// DefaultAngle is the fallback widgets use when sineAngle is unset.
const DefaultAngle = 45.0

//go:embed variables.yaml
var declarations []byte

// Declarations returns the embedded declaration document.
func Declarations() []byte {
	out := make([]byte, len(declarations))
	copy(out, declarations)
	return out
}

// Registry parses the embedded declarations. It panics if they are invalid,
// which can only happen if the embedded file is broken.
func Registry() *registry.Registry {
	reg, err := registry.Parse(declarations)
	if err != nil {
		panic("lesson: embedded declarations: " + err.Error())
	}
	return reg
}
