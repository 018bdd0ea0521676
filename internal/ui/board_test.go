package ui

import (
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"StepBoard/internal/script"
	"StepBoard/internal/state"
)

func newTestBoard(t *testing.T) (*BoardWidget, *state.Store, *script.Recorder) {
	test.NewTempApp(t)
	store := state.NewStore(zaptest.NewLogger(t))
	rec := script.NewRecorder()
	b := NewBoardWidget(store, rec, zaptest.NewLogger(t))
	w := test.NewWindow(b)
	w.Resize(fyne.NewSize(600, 400))
	t.Cleanup(w.Close)
	return b, store, rec
}

func press(b *BoardWidget, x, y float32) {
	b.MouseDown(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	})
}

func drag(b *BoardWidget, x, y float32) {
	b.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)}})
}

func release(b *BoardWidget, x, y float32) {
	b.MouseUp(&desktop.MouseEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(x, y)},
		Button:     desktop.MouseButtonPrimary,
	})
	b.DragEnd()
}

func TestBoardDrawsWithCurrentTool(t *testing.T) {
	b, store, _ := newTestBoard(t)
	b.SetTool(state.KindEllipse)
	purple, _ := state.LookupColor("purple")
	b.SetColor(purple)
	b.SetStrokeWidth(6)

	press(b, 100, 100)
	drag(b, 150, 120)
	drag(b, 200, 160)
	release(b, 200, 160)

	require.Equal(t, 1, store.Len())
	sh, _ := store.Shape(0)
	assert.Equal(t, state.KindEllipse, sh.Kind)
	assert.Equal(t, state.Point{X: 100, Y: 100}, sh.Start)
	assert.Equal(t, state.Point{X: 200, Y: 160}, sh.End)
	assert.Equal(t, purple, sh.Color)
	assert.Equal(t, 6, sh.StrokeWidth)
	assert.Equal(t, state.Params{Major: 100, Minor: 60}, sh.Params)
}

func TestBoardIgnoresClickWithoutDrag(t *testing.T) {
	b, store, _ := newTestBoard(t)
	press(b, 50, 50)
	release(b, 50, 50)
	assert.Equal(t, 0, store.Len())
}

func TestBoardFreehand(t *testing.T) {
	b, store, _ := newTestBoard(t)
	b.SetTool(state.KindFreehand)
	press(b, 10, 10)
	drag(b, 20, 15)
	drag(b, 20, 15)
	drag(b, 30, 25)
	release(b, 30, 25)

	require.Equal(t, 1, store.Len())
	sh, _ := store.Shape(0)
	assert.Equal(t, state.KindFreehand, sh.Kind)
	assert.Equal(t, []state.Point{{X: 10, Y: 10}, {X: 20, Y: 15}, {X: 30, Y: 25}}, sh.Points)
}

func TestBoardSelectAndMove(t *testing.T) {
	b, store, rec := newTestBoard(t)
	press(b, 100, 100)
	drag(b, 200, 200)
	release(b, 200, 200)

	rec.Start()
	b.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(150, 150)})
	i, ok := store.Selected()
	require.True(t, ok)
	assert.Equal(t, 0, i)

	press(b, 150, 150)
	drag(b, 160, 155)
	drag(b, 170, 170)
	release(b, 170, 170)

	sh, _ := store.Shape(0)
	assert.Equal(t, state.Point{X: 120, Y: 120}, sh.Start)
	assert.Equal(t, state.Point{X: 220, Y: 220}, sh.End)
	assert.Equal(t, 1, store.Len())

	ops := rec.Ops()
	require.NotEmpty(t, ops)
	assert.Equal(t, script.DrawShape("Rectangle", state.Point{X: 170, Y: 170}, state.Params{Width: 100, Height: 100}), ops[len(ops)-1])

	b.DoubleTapped(&fyne.PointEvent{Position: fyne.NewPos(500, 20)})
	_, ok = store.Selected()
	assert.False(t, ok)
}

func TestBoardRecordsDrawing(t *testing.T) {
	b, _, rec := newTestBoard(t)
	rec.Start()
	b.SetTool(state.KindCircle)
	red, _ := state.LookupColor("red")
	b.SetColor(red)
	press(b, 0, 0)
	drag(b, 40, 40)
	release(b, 40, 40)
	b.Clear()

	assert.Equal(t, "Step 1, select drawing tool Circle;Step 2, select color red;Step 3, select line width 2px;"+
		"Step 4, draw a Circle, move shape to (20, 20), set radius to 20px;Step 5, clear canvas.", rec.Text())
}

func TestBoardRejectsInvalidWidth(t *testing.T) {
	b, _, _ := newTestBoard(t)
	b.SetStrokeWidth(0)
	b.SetStrokeWidth(21)
	assert.Equal(t, 2, b.width)
}

func TestBoardRendersSelection(t *testing.T) {
	b, store, _ := newTestBoard(t)
	press(b, 10, 10)
	drag(b, 60, 60)
	release(b, 60, 60)
	before := len(test.WidgetRenderer(b).Objects())

	store.Select(0)
	after := len(test.WidgetRenderer(b).Objects())
	assert.Equal(t, before+2, after)
}

func TestCenterText(t *testing.T) {
	assert.Equal(t, "Center: none", CenterText(state.Point{}, false))
	assert.Equal(t, "Center: (406, 432)", CenterText(state.Point{X: 406, Y: 432}, true))
}
