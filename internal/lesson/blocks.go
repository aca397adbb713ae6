package lesson

import (
	"strconv"
)

// BlockKind identifies how a block is rendered.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindPlot      BlockKind = "plot"
)

// Span is one run of inline content. Exactly one of Text, Scrubber or
// Latex is set.
type Span struct {
	Text     string        `json:"text,omitempty"`
	Strong   bool          `json:"strong,omitempty"`
	Scrubber *ScrubberSpan `json:"scrubber,omitempty"`
	Latex    string        `json:"latex,omitempty"`
}

// ScrubberSpan is an inline number the reader can drag.
type ScrubberSpan struct {
	Variable string  `json:"variable"`
	Value    float64 `json:"value"`
	Display  string  `json:"display"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Step     float64 `json:"step"`
}

// Block is one top-level content block of the lesson.
type Block struct {
	ID    string      `json:"id"`
	Kind  BlockKind   `json:"kind"`
	Level int         `json:"level,omitempty"`
	Spans []Span      `json:"spans,omitempty"`
	Plot  *UnitCircle `json:"plot,omitempty"`
}

// FormatDegrees renders an angle the way the scrubber shows it: the
// shortest decimal form followed by a degree sign.
func FormatDegrees(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64) + "°"
}

func text(s string) Span   { return Span{Text: s} }
func strong(s string) Span { return Span{Text: s, Strong: true} }
func latex(s string) Span  { return Span{Latex: s} }

// Blocks returns the lesson's blocks, in reading order, for the current
// angle.
func Blocks(angleDeg float64) []Block {
	return []Block{
		{
			ID:    "block-sine-title",
			Kind:  KindHeading,
			Level: 1,
			Spans: []Span{text("Sine Waves")},
		},
		{
			ID:   "block-sine-intro-para",
			Kind: KindParagraph,
			Spans: []Span{text("The sine wave is one of the most fundamental shapes in all of " +
				"mathematics. It describes everything from the vibration of a guitar " +
				"string to the way light travels through space. But where does this " +
				"graceful curve actually come from?")},
		},
		{
			ID:    "block-sine-circle-heading",
			Kind:  KindHeading,
			Level: 2,
			Spans: []Span{text("From Circle to Wave")},
		},
		{
			ID:   "block-sine-circle-explain",
			Kind: KindParagraph,
			Spans: []Span{
				text("Imagine a point moving around a circle. As it moves, its "),
				strong("height above the center"),
				text(" traces out the sine wave. Try changing the angle to "),
				{Scrubber: &ScrubberSpan{
					Variable: SineAngle,
					Value:    angleDeg,
					Display:  FormatDegrees(angleDeg),
					Min:      0,
					Max:      360,
					Step:     5,
				}},
				text(" and watch how the point on the circle connects to the wave on the right. " +
					"The red dashed line shows the "),
				strong("sine value"),
				text(", the height of the point."),
			},
		},
		{
			ID:   "block-sine-viz",
			Kind: KindPlot,
			Plot: ptr(NewUnitCircle(angleDeg)),
		},
		{
			ID:   "block-sine-equation",
			Kind: KindParagraph,
			Spans: []Span{
				text("Mathematically, for any angle "),
				latex(`\theta`),
				text(", the sine function gives us the vertical coordinate of the point on the unit circle: "),
				latex(`y = \sin(\theta)`),
				text(". This simple relationship is the foundation of all wave phenomena."),
			},
		},
	}
}

func ptr[T any](v T) *T {
	return &v
}
