package state

import (
	"fmt"
	"math"
)

const (
	// HitPadding inflates a standard shape's box for hit testing.
	HitPadding = 15
	// FreehandTolerance is the maximum distance from a stroke that still hits it.
	FreehandTolerance = 10
	// SelectionPadding is the gap between a selected shape and its outline.
	SelectionPadding = 10

	ellipseSegments = 48
	starInnerRatio  = 0.4
	trapezoidInset  = 0.2
)

// FPoint is a canvas position used by renderers.
type FPoint struct{ X, Y float64 }

// Rect represents an axis-aligned area on the canvas.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Inflate grows r by d on every side.
func (r Rect) Inflate(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, Width: r.Width + 2*d, Height: r.Height + 2*d}
}

// Contains reports whether (x, y) lies in r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// DeriveParams computes the size parameters of a standard shape from its
// defining corners. Every returned field is at least 1.
func DeriveParams(kind Kind, start, end Point) Params {
	w, h := abs(end.X-start.X), abs(end.Y-start.Y)
	switch kind {
	case KindRectangle:
		return Params{Width: max(1, w), Height: max(1, h)}
	case KindSquare:
		return Params{Side: max(1, min(w, h))}
	case KindCircle:
		return Params{Radius: max(1, min(w, h)/2)}
	case KindEllipse:
		return Params{Major: max(1, w), Minor: max(1, h)}
	case KindTriangle:
		return Params{Base: max(1, w), Height: max(1, h)}
	case KindStar:
		return Params{Size: max(1, min(w, h))}
	case KindLine:
		return Params{Length: max(1, int(math.Sqrt(float64(w*w+h*h))))}
	case KindTrapezoid:
		return Params{TopBase: max(1, w*6/10), BottomBase: max(1, w), Height: max(1, h)}
	}
	return Params{}
}

// Fallbacks used when a placement leaves a parameter unset.
var defaultParams = map[Kind]Params{
	KindRectangle: {Width: 100, Height: 80},
	KindSquare:    {Side: 100},
	KindCircle:    {Radius: 50},
	KindEllipse:   {Major: 120, Minor: 80},
	KindTriangle:  {Base: 100, Height: 80},
	KindStar:      {Size: 80},
	KindLine:      {Length: 100},
	KindTrapezoid: {TopBase: 60, BottomBase: 100, Height: 80},
}

// WithDefaults fills every unset field of kind's parameter set.
func WithDefaults(kind Kind, p Params) Params {
	def := defaultParams[kind]
	for _, name := range FieldsFor(kind) {
		if p.Get(name) <= 0 {
			p.Set(name, def.Get(name))
		}
	}
	return p
}

// span returns the corners of an extent of length n around c. An odd extent
// puts the extra pixel on the low side, so hi-lo == n.
func span(c, n int) (lo, hi int) {
	return c - (n - n/2), c + n/2
}

// Placement keeps only the parameters Corners reads for kind. A trapezoid's
// top base is derived from its bottom base once placed, so it is dropped.
func Placement(kind Kind, p Params) Params {
	if kind == KindTrapezoid {
		p.TopBase = 0
	}
	return p
}

// Corners maps a center and parameters back to defining corners. Triangles
// and trapezoids keep their broad edge below the center, so their start.y is
// the larger coordinate. ok is false for kinds that cannot be placed this way.
func Corners(kind Kind, center Point, p Params) (start, end Point, ok bool) {
	if !kind.Standard() {
		return Point{}, Point{}, false
	}
	p = WithDefaults(kind, p)
	cx, cy := center.X, center.Y

	box := func(w, h int) (Point, Point, bool) {
		x0, x1 := span(cx, w)
		y0, y1 := span(cy, h)
		return Point{x0, y0}, Point{x1, y1}, true
	}
	flipped := func(w, h int) (Point, Point, bool) {
		x0, x1 := span(cx, w)
		top, bottom := span(cy, h)
		return Point{x0, bottom}, Point{x1, top}, true
	}

	switch kind {
	case KindRectangle:
		return box(p.Width, p.Height)
	case KindSquare:
		return box(p.Side, p.Side)
	case KindCircle:
		return Point{cx - p.Radius, cy - p.Radius}, Point{cx + p.Radius, cy + p.Radius}, true
	case KindEllipse:
		return box(p.Major, p.Minor)
	case KindTriangle:
		return flipped(p.Base, p.Height)
	case KindStar:
		return box(p.Size, p.Size)
	case KindLine:
		x0, x1 := span(cx, p.Length)
		return Point{x0, cy}, Point{x1, cy}, true
	case KindTrapezoid:
		return flipped(p.BottomBase, p.Height)
	}
	return Point{}, Point{}, false
}

// Center returns the integer midpoint of a standard shape or the truncated
// centroid of a freehand stroke. It panics on a stroke with no points.
func Center(s Shape) Point {
	if s.Kind != KindFreehand {
		return Point{(s.Start.X + s.End.X) / 2, (s.Start.Y + s.End.Y) / 2}
	}
	if len(s.Points) == 0 {
		panic(fmt.Sprintf("state: center of empty freehand shape %s", s.ID))
	}
	var sx, sy int
	for _, pt := range s.Points {
		sx += pt.X
		sy += pt.Y
	}
	return Point{sx / len(s.Points), sy / len(s.Points)}
}

// Bounds returns the area a shape occupies. Standard shapes are scaled about
// their center.
func Bounds(s Shape) Rect {
	if s.Kind == KindFreehand {
		if len(s.Points) == 0 {
			return Rect{}
		}
		minX, minY := s.Points[0].X, s.Points[0].Y
		maxX, maxY := minX, minY
		for _, pt := range s.Points[1:] {
			minX, maxX = min(minX, pt.X), max(maxX, pt.X)
			minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
		}
		return Rect{X: float64(minX), Y: float64(minY), Width: float64(maxX - minX), Height: float64(maxY - minY)}
	}

	scale := s.Scale
	if scale == 0 {
		scale = 1
	}
	c := Center(s)
	w := float64(abs(s.End.X-s.Start.X)) * scale
	h := float64(abs(s.End.Y-s.Start.Y)) * scale
	// The center is the truncated midpoint, so scale the box about it rather
	// than about the exact midpoint to match the rendered outline.
	x0 := float64(c.X) + (float64(min(s.Start.X, s.End.X))-float64(c.X))*scale
	y0 := float64(c.Y) + (float64(min(s.Start.Y, s.End.Y))-float64(c.Y))*scale
	return Rect{X: x0, Y: y0, Width: w, Height: h}
}

// HitTest reports whether p selects the shape.
func HitTest(p Point, s Shape) bool {
	if s.Kind == KindFreehand {
		for i := 0; i+1 < len(s.Points); i++ {
			if SegmentDistance(p, s.Points[i], s.Points[i+1]) < FreehandTolerance {
				return true
			}
		}
		return false
	}
	return Bounds(s).Inflate(HitPadding).Contains(float64(p.X), float64(p.Y))
}

// SegmentDistance returns the distance from p to the segment a-b.
func SegmentDistance(p, a, b Point) float64 {
	px, py := float64(p.X), float64(p.Y)
	ax, ay := float64(a.X), float64(a.Y)
	dx, dy := float64(b.X-a.X), float64(b.Y-a.Y)
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-ax, py-ay)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(px-(ax+t*dx), py-(ay+t*dy))
}

// Outline returns the polylines that draw a shape, with scale and rotation
// applied about its center. Closed figures repeat their first vertex.
func Outline(s Shape) [][]FPoint {
	if s.Kind == KindFreehand {
		if len(s.Points) < 2 {
			return nil
		}
		line := make([]FPoint, len(s.Points))
		for i, pt := range s.Points {
			line[i] = FPoint{float64(pt.X), float64(pt.Y)}
		}
		return [][]FPoint{line}
	}
	if s.Start == s.End {
		return nil
	}

	c := Center(s)
	cx, cy := float64(c.X), float64(c.Y)
	x := float64(min(s.Start.X, s.End.X))
	y := float64(min(s.Start.Y, s.End.Y))
	w := float64(abs(s.End.X - s.Start.X))
	h := float64(abs(s.End.Y - s.Start.Y))

	var pts []FPoint
	switch s.Kind {
	case KindRectangle:
		pts = rectPoints(x, y, w, h)
	case KindSquare:
		side := math.Min(w, h)
		pts = rectPoints(cx-side/2, cy-side/2, side, side)
	case KindCircle:
		d := math.Min(w, h)
		pts = ellipsePoints(cx, cy, d/2, d/2)
	case KindEllipse:
		pts = ellipsePoints(x+w/2, y+h/2, w/2, h/2)
	case KindTriangle:
		pts = []FPoint{{cx, y}, {x, y + h}, {x + w, y + h}, {cx, y}}
	case KindStar:
		pts = starPoints(cx, cy, math.Min(w, h)/2)
	case KindLine:
		pts = []FPoint{
			{float64(s.Start.X), float64(s.Start.Y)},
			{float64(s.End.X), float64(s.End.Y)},
		}
	case KindTrapezoid:
		off := w * trapezoidInset
		pts = []FPoint{{x + off, y}, {x + w - off, y}, {x + w, y + h}, {x, y + h}, {x + off, y}}
	default:
		return nil
	}
	return [][]FPoint{transform(pts, cx, cy, s.Scale, s.Rotation)}
}

func rectPoints(x, y, w, h float64) []FPoint {
	return []FPoint{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}, {x, y}}
}

func ellipsePoints(cx, cy, rx, ry float64) []FPoint {
	pts := make([]FPoint, 0, ellipseSegments+1)
	for i := 0; i <= ellipseSegments; i++ {
		a := 2 * math.Pi * float64(i) / ellipseSegments
		pts = append(pts, FPoint{cx + rx*math.Cos(a), cy + ry*math.Sin(a)})
	}
	return pts
}

func starPoints(cx, cy, r float64) []FPoint {
	pts := make([]FPoint, 0, 11)
	for i := 0; i < 10; i++ {
		a := math.Pi/2 - float64(i)*2*math.Pi/10
		rr := r
		if i%2 == 1 {
			rr = r * starInnerRatio
		}
		pts = append(pts, FPoint{cx + rr*math.Cos(a), cy - rr*math.Sin(a)})
	}
	return append(pts, pts[0])
}

// transform scales then rotates pts about (cx, cy). Positive degrees turn
// clockwise on a y-down canvas.
func transform(pts []FPoint, cx, cy, scale float64, degrees int) []FPoint {
	if scale == 0 {
		scale = 1
	}
	rad := float64(degrees) * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	out := make([]FPoint, len(pts))
	for i, p := range pts {
		dx, dy := (p.X-cx)*scale, (p.Y-cy)*scale
		out[i] = FPoint{cx + dx*cos - dy*sin, cy + dx*sin + dy*cos}
	}
	return out
}
