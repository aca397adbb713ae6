package lesson

import "math"

// Plot layout, in plot units.
const (
	// WaveOffset is where the sine wave starts on the x axis, to the right
	// of the unit circle.
	WaveOffset = 1.5

	// WaveEnd is where the plotted wave stops.
	WaveEnd = 8.0
)

// Point is a position in plot coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a straight line between two points.
type Segment struct {
	From Point `json:"from"`
	To   Point `json:"to"`
}

// ViewBox is the visible region of the plot.
type ViewBox struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
}

// UnitCircle is everything the plot draws for one angle.
type UnitCircle struct {
	Degrees float64 `json:"degrees"`
	Radians float64 `json:"radians"`

	// OnCircle is (cos θ, sin θ).
	OnCircle Point `json:"onCircle"`

	Radius Segment `json:"radius"`

	// Sine is the vertical projection from the x axis up to OnCircle; its
	// length is the sine value.
	Sine Segment `json:"sine"`

	// Cosine is the horizontal projection from the origin.
	Cosine Segment `json:"cosine"`

	// Connector runs from OnCircle to the start of the wave.
	Connector Segment `json:"connector"`

	// OnWave is the point of the wave that corresponds to the angle.
	OnWave Point `json:"onWave"`

	// WaveMarker drops from OnWave to the x axis.
	WaveMarker Segment `json:"waveMarker"`

	// Label is where the "sin θ" label sits.
	Label Point `json:"label"`

	View ViewBox `json:"view"`
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// NewUnitCircle computes the plot geometry for an angle in degrees.
func NewUnitCircle(deg float64) UnitCircle {
	rad := Radians(deg)
	cx, cy := math.Cos(rad), math.Sin(rad)
	onCircle := Point{X: cx, Y: cy}
	onWave := Point{X: rad + WaveOffset, Y: math.Sin(rad)}

	return UnitCircle{
		Degrees:    deg,
		Radians:    rad,
		OnCircle:   onCircle,
		Radius:     Segment{From: Point{}, To: onCircle},
		Sine:       Segment{From: Point{X: cx}, To: onCircle},
		Cosine:     Segment{From: Point{}, To: Point{X: cx}},
		Connector:  Segment{From: onCircle, To: Point{X: WaveOffset, Y: cy}},
		OnWave:     onWave,
		WaveMarker: Segment{From: Point{X: onWave.X}, To: onWave},
		Label:      Point{X: cx + 0.15, Y: cy / 2},
		View:       ViewBox{MinX: -1.8, MaxX: WaveEnd, MinY: -1.8, MaxY: 1.8},
	}
}

// WaveCurve samples y = sin(x - WaveOffset) at n evenly spaced points from
// WaveOffset to WaveEnd. This is not the plain y = sin(x) over the same
// range: the curve is shifted so that it starts at phase 0 next to the
// circle and the OnWave marker (rad + WaveOffset, sin rad) lies on it.
func WaveCurve(n int) []Point {
	if n < 2 {
		n = 2
	}
	pts := make([]Point, n)
	step := (WaveEnd - WaveOffset) / float64(n-1)
	for i := range pts {
		x := WaveOffset + float64(i)*step
		pts[i] = Point{X: x, Y: math.Sin(x - WaveOffset)}
	}
	return pts
}
