package state

import (
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standardKinds() []Kind {
	var out []Kind
	for _, k := range Kinds() {
		if k.Standard() {
			out = append(out, k)
		}
	}
	return out
}

func TestDeriveParams(t *testing.T) {
	start, end := Point{10, 20}, Point{110, 70} // 100 x 50
	tests := []struct {
		kind Kind
		want Params
	}{
		{KindRectangle, Params{Width: 100, Height: 50}},
		{KindSquare, Params{Side: 50}},
		{KindCircle, Params{Radius: 25}},
		{KindEllipse, Params{Major: 100, Minor: 50}},
		{KindTriangle, Params{Base: 100, Height: 50}},
		{KindStar, Params{Size: 50}},
		{KindLine, Params{Length: 111}},
		{KindTrapezoid, Params{TopBase: 60, BottomBase: 100, Height: 50}},
		{KindFreehand, Params{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveParams(tt.kind, start, end))
			// Corner order does not matter.
			assert.Equal(t, tt.want, DeriveParams(tt.kind, end, start))
		})
	}
}

func TestDeriveParamsNeverBelowOne(t *testing.T) {
	pairs := [][2]Point{
		{{5, 5}, {5, 5}},
		{{0, 0}, {1, 0}},
		{{0, 0}, {0, 1}},
		{{3, 3}, {4, 4}},
		{{-7, 2}, {-7, 90}},
	}
	for _, k := range standardKinds() {
		for _, pr := range pairs {
			p := DeriveParams(k, pr[0], pr[1])
			for _, name := range FieldsFor(k) {
				assert.GreaterOrEqual(t, p.Get(name), 1, "%s %s from %v", k, name, pr)
			}
		}
	}
}

func TestCornersCanonicalRectangle(t *testing.T) {
	start, end, ok := Corners(KindRectangle, Point{406, 432}, Params{Width: 160, Height: 143})
	require.True(t, ok)
	assert.Equal(t, Point{326, 360}, start)
	assert.Equal(t, Point{486, 503}, end)
}

func TestCornersDefaults(t *testing.T) {
	c := Point{200, 200}
	tests := []struct {
		kind       Kind
		start, end Point
	}{
		{KindRectangle, Point{150, 160}, Point{250, 240}},
		{KindSquare, Point{150, 150}, Point{250, 250}},
		{KindCircle, Point{150, 150}, Point{250, 250}},
		{KindEllipse, Point{140, 160}, Point{260, 240}},
		{KindTriangle, Point{150, 240}, Point{250, 160}},
		{KindStar, Point{160, 160}, Point{240, 240}},
		{KindLine, Point{150, 200}, Point{250, 200}},
		{KindTrapezoid, Point{150, 240}, Point{250, 160}},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			start, end, ok := Corners(tt.kind, c, Params{})
			require.True(t, ok)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
		})
	}
}

func TestCornersPartialParamsFallBackPerField(t *testing.T) {
	start, end, ok := Corners(KindRectangle, Point{0, 0}, Params{Width: 40})
	require.True(t, ok)
	assert.Equal(t, Params{Width: 40, Height: 80}, DeriveParams(KindRectangle, start, end))
}

func TestCornersRejectsFreehand(t *testing.T) {
	_, _, ok := Corners(KindFreehand, Point{1, 1}, Params{})
	assert.False(t, ok)
	_, _, ok = Corners(Kind(42), Point{1, 1}, Params{})
	assert.False(t, ok)
}

func TestParamsRoundTrip(t *testing.T) {
	corners := []Point{{0, 0}, {1, 1}, {13, 7}, {-40, 25}, {160, 143}, {99, -101}, {3, 250}}
	for _, k := range standardKinds() {
		for _, a := range corners {
			for _, b := range corners {
				want := DeriveParams(k, a, b)
				c := Center(Shape{Kind: k, Start: a, End: b})
				s, e, ok := Corners(k, c, want)
				require.True(t, ok)
				assert.Equal(t, want, DeriveParams(k, s, e), "%s %v-%v", k, a, b)
			}
		}
	}
}

func TestCenter(t *testing.T) {
	assert.Equal(t, Point{406, 431}, Center(Shape{Kind: KindRectangle, Start: Point{326, 360}, End: Point{486, 503}}))
	free := Shape{Kind: KindFreehand, Points: []Point{{0, 0}, {10, 0}, {10, 5}}}
	assert.Equal(t, Point{6, 1}, Center(free))
	assert.Panics(t, func() { Center(Shape{Kind: KindFreehand}) })
}

func TestHitTestReflexive(t *testing.T) {
	for _, k := range standardKinds() {
		for _, scale := range []float64{0.1, 0.5, 1, 2.5, 5} {
			s := NewShape(k, Point{100, 100}, Point{400, 260}, mustColor("red"), 2)
			s.Scale = scale
			assert.True(t, HitTest(Center(s), s), "%s scale %v", k, scale)
		}
	}
	free := NewFreehand([]Point{{0, 0}, {50, 0}, {50, 50}}, mustColor("black"), 2)
	assert.True(t, HitTest(free.Points[1], free))
}

func TestHitTestPadding(t *testing.T) {
	s := NewShape(KindRectangle, Point{100, 100}, Point{200, 200}, mustColor("black"), 2)
	assert.True(t, HitTest(Point{85, 85}, s))
	assert.True(t, HitTest(Point{215, 150}, s))
	assert.False(t, HitTest(Point{84, 150}, s))
	assert.False(t, HitTest(Point{150, 216}, s))

	s.Scale = 2 // box is now 50..250
	assert.True(t, HitTest(Point{40, 40}, s))
	assert.False(t, HitTest(Point{30, 150}, s))
}

func TestHitTestFreehandTolerance(t *testing.T) {
	s := NewFreehand([]Point{{0, 0}, {100, 0}}, mustColor("black"), 2)
	assert.True(t, HitTest(Point{50, 9}, s))
	assert.False(t, HitTest(Point{50, 10}, s))
	assert.False(t, HitTest(Point{115, 0}, s))
}

func TestSegmentDistance(t *testing.T) {
	assert.InDelta(t, 5.0, SegmentDistance(Point{5, 5}, Point{0, 0}, Point{10, 0}), 1e-9)
	// Projection clamps to the endpoints.
	assert.InDelta(t, 5.0, SegmentDistance(Point{-3, 4}, Point{0, 0}, Point{10, 0}), 1e-9)
	assert.InDelta(t, math.Hypot(3, 4), SegmentDistance(Point{3, 4}, Point{0, 0}, Point{0, 0}), 1e-9)
}

func TestOutline(t *testing.T) {
	rect := NewShape(KindRectangle, Point{0, 0}, Point{10, 20}, mustColor("black"), 1)
	lines := Outline(rect)
	require.Len(t, lines, 1)
	assert.Equal(t, []FPoint{{0, 0}, {10, 0}, {10, 20}, {0, 20}, {0, 0}}, lines[0])

	star := NewShape(KindStar, Point{0, 0}, Point{100, 100}, mustColor("black"), 1)
	pts := Outline(star)[0]
	require.Len(t, pts, 11)
	assert.InDelta(t, 50.0, pts[0].X, 1e-9)
	assert.InDelta(t, 0.0, pts[0].Y, 1e-9)

	rect.Rotation = 90
	turned := Outline(rect)[0]
	// Rotating about (5, 10) maps the top-left corner to (15, 5).
	assert.InDelta(t, 15.0, turned[0].X, 1e-9)
	assert.InDelta(t, 5.0, turned[0].Y, 1e-9)

	assert.Nil(t, Outline(NewShape(KindLine, Point{3, 3}, Point{3, 3}, mustColor("black"), 1)))
}

func mustColor(name string) color.NRGBA {
	c, ok := LookupColor(name)
	if !ok {
		c, _ = LookupColor("black")
	}
	return c
}
