// Package registry is the read-only catalog of lesson variables.
//
// A Registry maps each declared name to a Definition: its default value, its
// semantic kind and optional constraints (min/max/step for numbers, options
// for selects). It is built once, at startup, either from a literal table:
//
//	var Vars = registry.MustNew(
//	    registry.Entry{Name: "sineAngle", Definition: registry.Definition{
//	        Default: value.Number(45),
//	        Kind:    registry.KindNumber,
//	        Unit:    "°",
//	        Min:     registry.Float(0),
//	        Max:     registry.Float(360),
//	        Step:    registry.Float(5),
//	    }},
//	)
//
// or from a YAML document on disk or in S3 (see Parse, LoadFile, LoadS3).
//
// Construction fails on duplicate names and on definitions whose default
// breaks the kind's invariants. After construction the registry never
// changes, so it can be shared freely between goroutines.
package registry
