package state

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type centerEvent struct {
	at Point
	ok bool
}

type recordingListener struct {
	repaints []uint64
	centers  []centerEvent
}

func (r *recordingListener) ShapesChanged(rev uint64) { r.repaints = append(r.repaints, rev) }
func (r *recordingListener) CenterChanged(c Point, ok bool) {
	r.centers = append(r.centers, centerEvent{c, ok})
}

func (r *recordingListener) lastCenter() centerEvent { return r.centers[len(r.centers)-1] }

func newTestStore(t *testing.T) (*Store, *recordingListener) {
	s := NewStore(zaptest.NewLogger(t))
	l := &recordingListener{}
	s.AddListener(l)
	return s, l
}

func TestStoreAppendClearsSelection(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindRectangle, Point{0, 0}, Point{10, 10}, mustColor("red"), 2))
	s.Select(0)
	idx := s.Append(NewShape(KindCircle, Point{20, 20}, Point{40, 40}, mustColor("blue"), 2))

	assert.Equal(t, 1, idx)
	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, centerEvent{ok: false}, l.lastCenter())
	assert.Equal(t, []uint64{1, 2}, l.repaints)
	assert.Equal(t, uint64(2), s.Revision())
}

func TestStoreSelectOutOfRangePanics(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Panics(t, func() { s.Select(0) })
	s.Append(NewShape(KindSquare, Point{0, 0}, Point{10, 10}, mustColor("red"), 2))
	assert.Panics(t, func() { s.Select(-1) })
	assert.NotPanics(t, func() { s.Select(0) })
	// The lock must be released after a panic.
	assert.Equal(t, 1, s.Len())
}

func TestStoreSelectAtPicksFirstHit(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindRectangle, Point{0, 0}, Point{100, 100}, mustColor("red"), 2))
	s.Append(NewShape(KindRectangle, Point{50, 50}, Point{150, 150}, mustColor("blue"), 2))

	require.True(t, s.SelectAt(Point{75, 75}))
	i, _ := s.Selected()
	assert.Equal(t, 0, i)
	assert.Equal(t, centerEvent{Point{50, 50}, true}, l.lastCenter())

	require.True(t, s.SelectAt(Point{160, 160}))
	i, _ = s.Selected()
	assert.Equal(t, 1, i)

	assert.False(t, s.SelectAt(Point{500, 500}))
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestStoreMoveAndMoveBack(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append(NewShape(KindTriangle, Point{10, 80}, Point{90, 20}, mustColor("green"), 3))
	s.Append(NewFreehand([]Point{{1, 1}, {5, 9}, {12, 4}}, mustColor("black"), 2))
	before := s.Shapes()

	for i := range before {
		s.Select(i)
		s.MoveSelected(37, -12)
		s.MoveSelected(-37, 12)
	}
	after := s.Shapes()
	for i := range before {
		assert.Equal(t, before[i].Start, after[i].Start)
		assert.Equal(t, before[i].End, after[i].End)
		assert.Equal(t, before[i].Points, after[i].Points)
		assert.Equal(t, before[i].Params, after[i].Params)
	}
}

func TestStoreMoveSelectedTo(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindRectangle, Point{0, 0}, Point{100, 50}, mustColor("red"), 2))
	s.Select(0)
	s.MoveSelectedTo(Point{300, 300})

	sh, ok := s.Shape(0)
	require.True(t, ok)
	assert.Equal(t, Point{250, 275}, sh.Start)
	assert.Equal(t, Point{350, 325}, sh.End)
	assert.Equal(t, Params{Width: 100, Height: 50}, sh.Params)
	assert.Equal(t, centerEvent{Point{300, 300}, true}, l.lastCenter())
}

func TestStoreMoveSelectedWithoutSelectionIsNoop(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindRectangle, Point{0, 0}, Point{10, 10}, mustColor("red"), 2))
	repaints := len(l.repaints)
	s.MoveSelected(5, 5)
	s.MoveSelectedTo(Point{1, 1})
	assert.Len(t, l.repaints, repaints)
	sh, _ := s.Shape(0)
	assert.Equal(t, Point{0, 0}, sh.Start)
}

func TestStoreMoveTo(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append(NewShape(KindCircle, Point{0, 0}, Point{20, 20}, mustColor("red"), 2))
	assert.True(t, s.MoveTo(0, Point{110, 110}))
	assert.False(t, s.MoveTo(3, Point{0, 0}))
	sh, _ := s.Shape(0)
	assert.Equal(t, Point{110, 110}, Center(sh))
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestStoreScaleAndRotation(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append(NewShape(KindStar, Point{0, 0}, Point{40, 40}, mustColor("yellow"), 2))
	s.Select(0)

	s.SetSelectedScale(9)
	sh, _ := s.Shape(0)
	assert.Equal(t, MaxScale, sh.Scale)
	s.SetSelectedScale(0.01)
	sh, _ = s.Shape(0)
	assert.Equal(t, MinScale, sh.Scale)
	assert.Equal(t, Point{0, 0}, sh.Start)

	s.SetSelectedRotation(370)
	sh, _ = s.Shape(0)
	assert.Equal(t, 10, sh.Rotation)
	s.SetSelectedRotation(-90)
	sh, _ = s.Shape(0)
	assert.Equal(t, 270, sh.Rotation)
}

func TestStoreScaleIgnoresNaN(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append(NewShape(KindSquare, Point{0, 0}, Point{40, 40}, mustColor("blue"), 2))
	s.Select(0)
	s.SetSelectedScale(1.5)

	s.SetSelectedScale(math.NaN())
	sh, _ := s.Shape(0)
	assert.Equal(t, 1.5, sh.Scale)

	s.SetSelectedScale(math.Inf(1))
	sh, _ = s.Shape(0)
	assert.Equal(t, MaxScale, sh.Scale)
}

func TestStoreRecolorAndRestroke(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindLine, Point{0, 0}, Point{40, 0}, mustColor("black"), 2))
	s.Select(0)
	n := len(l.repaints)
	s.SetSelectedColor(mustColor("pink"))
	s.SetSelectedStrokeWidth(7)
	sh, _ := s.Shape(0)
	assert.Equal(t, mustColor("pink"), sh.Color)
	assert.Equal(t, 7, sh.StrokeWidth)
	assert.Len(t, l.repaints, n+2)
}

func TestStoreDeleteSelected(t *testing.T) {
	s, l := newTestStore(t)
	assert.False(t, s.DeleteSelected())
	s.Append(NewShape(KindEllipse, Point{0, 0}, Point{30, 20}, mustColor("red"), 2))
	s.Append(NewShape(KindEllipse, Point{50, 0}, Point{80, 20}, mustColor("blue"), 2))
	s.Select(0)
	assert.True(t, s.DeleteSelected())
	assert.Equal(t, 1, s.Len())
	sh, _ := s.Shape(0)
	assert.Equal(t, mustColor("blue"), sh.Color)
	assert.Equal(t, centerEvent{ok: false}, l.lastCenter())
	assert.False(t, s.DeleteSelected())
}

func TestStoreClear(t *testing.T) {
	s, l := newTestStore(t)
	s.Append(NewShape(KindSquare, Point{0, 0}, Point{30, 30}, mustColor("red"), 2))
	s.Select(0)
	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.Shapes())
	_, ok := s.SelectedCenter()
	assert.False(t, ok)
	assert.Equal(t, centerEvent{ok: false}, l.lastCenter())
}

func TestStoreShapesReturnsCopies(t *testing.T) {
	s, _ := newTestStore(t)
	s.Append(NewFreehand([]Point{{0, 0}, {3, 3}}, mustColor("black"), 2))
	shapes := s.Shapes()
	shapes[0].Points[0] = Point{99, 99}
	sh, _ := s.Shape(0)
	assert.Equal(t, Point{0, 0}, sh.Points[0])
}
