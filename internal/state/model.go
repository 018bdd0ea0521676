package state

import (
	"image/color"
	"strings"

	"golang.org/x/text/cases"
)

// Point is a canvas position in integer pixels.
type Point struct{ X, Y int }

// Add returns p translated by (dx, dy).
func (p Point) Add(dx, dy int) Point { return Point{p.X + dx, p.Y + dy} }

// Kind identifies a shape type.
type Kind int

const (
	KindRectangle Kind = iota
	KindSquare
	KindCircle
	KindEllipse
	KindTriangle
	KindStar
	KindLine
	KindTrapezoid
	KindFreehand
)

var kindNames = [...]string{
	KindRectangle: "Rectangle",
	KindSquare:    "Square",
	KindCircle:    "Circle",
	KindEllipse:   "Ellipse",
	KindTriangle:  "Triangle",
	KindStar:      "Star",
	KindLine:      "Line",
	KindTrapezoid: "Trapezoid",
	KindFreehand:  "Freehand",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Standard reports whether shapes of this kind are defined by a start/end pair.
func (k Kind) Standard() bool { return k >= KindRectangle && k <= KindTrapezoid }

// foldName normalizes a vocabulary name for comparison. A Caser keeps state,
// so each call gets its own.
func foldName(s string) string { return cases.Fold().String(strings.TrimSpace(s)) }

// ParseKind resolves a kind name case-insensitively.
func ParseKind(name string) (Kind, bool) {
	want := foldName(name)
	for k, n := range kindNames {
		if foldName(n) == want {
			return Kind(k), true
		}
	}
	return 0, false
}

// Kinds lists every kind in toolbar order.
func Kinds() []Kind {
	out := make([]Kind, len(kindNames))
	for i := range kindNames {
		out[i] = Kind(i)
	}
	return out
}

// Params holds the derived size parameters of a standard shape. A zero field
// is unset; derived fields are always at least 1.
type Params struct {
	Width      int `json:"width,omitempty"`
	Height     int `json:"height,omitempty"`
	Side       int `json:"side,omitempty"`
	Radius     int `json:"radius,omitempty"`
	Major      int `json:"major,omitempty"`
	Minor      int `json:"minor,omitempty"`
	Base       int `json:"base,omitempty"`
	Size       int `json:"size,omitempty"`
	Length     int `json:"length,omitempty"`
	TopBase    int `json:"top_base,omitempty"`
	BottomBase int `json:"bottom_base,omitempty"`
}

// Field names as they appear in step text, per kind, in canonical order.
var kindFields = map[Kind][]string{
	KindRectangle: {"width", "height"},
	KindSquare:    {"side"},
	KindCircle:    {"radius"},
	KindEllipse:   {"major", "minor"},
	KindTriangle:  {"base", "height"},
	KindStar:      {"size"},
	KindLine:      {"length"},
	KindTrapezoid: {"top_base", "bottom_base", "height"},
}

// FieldsFor returns the parameter names carried by a kind.
func FieldsFor(k Kind) []string { return kindFields[k] }

func (p *Params) field(name string) *int {
	switch name {
	case "width":
		return &p.Width
	case "height":
		return &p.Height
	case "side":
		return &p.Side
	case "radius":
		return &p.Radius
	case "major":
		return &p.Major
	case "minor":
		return &p.Minor
	case "base":
		return &p.Base
	case "size":
		return &p.Size
	case "length":
		return &p.Length
	case "top_base":
		return &p.TopBase
	case "bottom_base":
		return &p.BottomBase
	}
	return nil
}

// Get returns the named field, or 0 for an unknown name.
func (p Params) Get(name string) int {
	if f := p.field(name); f != nil {
		return *f
	}
	return 0
}

// Set assigns the named field and reports whether the name is known.
func (p *Params) Set(name string, v int) bool {
	f := p.field(name)
	if f == nil {
		return false
	}
	*f = v
	return true
}

// Shape is one item of the drawing document. Standard kinds use Start and
// End; freehand strokes use Points.
type Shape struct {
	ID          string
	Kind        Kind
	Start, End  Point
	Points      []Point
	Color       color.NRGBA
	StrokeWidth int
	Scale       float64
	Rotation    int
	Params      Params
}

// NewShape builds a standard shape and derives its parameters once.
func NewShape(kind Kind, start, end Point, c color.NRGBA, width int) Shape {
	return Shape{
		ID:          NewID(),
		Kind:        kind,
		Start:       start,
		End:         end,
		Color:       c,
		StrokeWidth: width,
		Scale:       1,
		Params:      DeriveParams(kind, start, end),
	}
}

// NewFreehand builds a freehand stroke from the given points.
func NewFreehand(points []Point, c color.NRGBA, width int) Shape {
	pts := make([]Point, len(points))
	copy(pts, points)
	return Shape{
		ID:          NewID(),
		Kind:        KindFreehand,
		Points:      pts,
		Color:       c,
		StrokeWidth: width,
		Scale:       1,
	}
}

func (s Shape) clone() Shape {
	if s.Points != nil {
		pts := make([]Point, len(s.Points))
		copy(pts, s.Points)
		s.Points = pts
	}
	return s
}

func (s *Shape) translate(dx, dy int) {
	if s.Kind == KindFreehand {
		for i := range s.Points {
			s.Points[i] = s.Points[i].Add(dx, dy)
		}
		return
	}
	s.Start = s.Start.Add(dx, dy)
	s.End = s.End.Add(dx, dy)
}
