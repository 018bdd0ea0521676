package ui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"StepBoard/internal/script"
	"StepBoard/internal/state"
)

var (
	selectionColor = color.NRGBA{B: 255, A: 255}
	markerColor    = color.NRGBA{R: 255, A: 255}
)

const (
	markerRadius = 4
	previewAlpha = 128
)

type gesture int

const (
	gestureNone gesture = iota
	gestureShape
	gestureFreehand
	gestureMove
)

// BoardWidget draws the document held by a state.Store and turns pointer
// input into store edits. Press and drag draws with the current tool, a
// double tap selects, and dragging the selected shape moves it.
type BoardWidget struct {
	widget.BaseWidget

	store    *state.Store
	recorder *script.Recorder
	log      *zap.Logger

	tool  state.Kind
	color color.NRGBA
	width int

	gesture gesture
	start   state.Point
	current state.Point
	points  []state.Point
}

var _ fyne.Widget = (*BoardWidget)(nil)
var _ fyne.Draggable = (*BoardWidget)(nil)
var _ fyne.DoubleTappable = (*BoardWidget)(nil)
var _ desktop.Mouseable = (*BoardWidget)(nil)
var _ state.Listener = (*BoardWidget)(nil)

// NewBoardWidget creates a board over store and registers it as a listener.
// recorder may be nil.
func NewBoardWidget(store *state.Store, recorder *script.Recorder, log *zap.Logger) *BoardWidget {
	if log == nil {
		log = zap.NewNop()
	}
	black, _ := state.LookupColor("black")
	b := &BoardWidget{
		store:    store,
		recorder: recorder,
		log:      log.Named("board"),
		tool:     state.KindRectangle,
		color:    black,
		width:    2,
	}
	b.ExtendBaseWidget(b)
	store.AddListener(b)
	return b
}

// Tool returns the current drawing tool.
func (b *BoardWidget) Tool() state.Kind { return b.tool }

func (b *BoardWidget) SetTool(k state.Kind) {
	b.tool = k
	if b.recorder != nil {
		b.recorder.Tool(k)
	}
}

// SetColor sets the pen color and recolors the selected shape.
func (b *BoardWidget) SetColor(c color.NRGBA) {
	b.color = c
	b.store.SetSelectedColor(c)
	if b.recorder != nil {
		b.recorder.Color(c)
	}
}

// SetStrokeWidth sets the pen width and applies it to the selected shape.
// Widths outside the allowed range are ignored.
func (b *BoardWidget) SetStrokeWidth(px int) {
	if !state.ValidStrokeWidth(px) {
		return
	}
	b.width = px
	b.store.SetSelectedStrokeWidth(px)
	if b.recorder != nil {
		b.recorder.Width(px)
	}
}

// Clear empties the document.
func (b *BoardWidget) Clear() {
	b.store.Clear()
	if b.recorder != nil {
		b.recorder.Cleared()
	}
}

func toPoint(p fyne.Position) state.Point {
	return state.Point{X: int(p.X), Y: int(p.Y)}
}

func (b *BoardWidget) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	p := toPoint(e.Position)
	b.start, b.current = p, p

	if i, ok := b.store.Selected(); ok {
		if sh, _ := b.store.Shape(i); state.HitTest(p, sh) {
			b.gesture = gestureMove
			return
		}
	}
	if b.tool == state.KindFreehand {
		b.gesture = gestureFreehand
		b.points = []state.Point{p}
	} else {
		b.gesture = gestureShape
	}
	b.Refresh()
}

func (b *BoardWidget) Dragged(e *fyne.DragEvent) {
	p := toPoint(e.Position)
	switch b.gesture {
	case gestureMove:
		dx, dy := p.X-b.current.X, p.Y-b.current.Y
		b.current = p
		if dx != 0 || dy != 0 {
			b.store.MoveSelected(dx, dy)
		}
	case gestureFreehand:
		if last := b.points[len(b.points)-1]; last != p {
			b.points = append(b.points, p)
		}
		b.current = p
		b.Refresh()
	case gestureShape:
		b.current = p
		b.Refresh()
	}
}

func (b *BoardWidget) MouseUp(e *desktop.MouseEvent) {
	if e.Button == desktop.MouseButtonPrimary {
		b.finish()
	}
}

func (b *BoardWidget) DragEnd() { b.finish() }

// finish commits the gesture in progress. MouseUp and DragEnd may both
// arrive; the second call is a no-op.
func (b *BoardWidget) finish() {
	g := b.gesture
	b.gesture = gestureNone
	switch g {
	case gestureShape:
		if b.start == b.current {
			b.Refresh()
			return
		}
		sh := state.NewShape(b.tool, b.start, b.current, b.color, b.width)
		b.store.Append(sh)
		b.log.Debug("shape drawn", zap.Stringer("kind", b.tool), zap.String("id", sh.ID))
		if b.recorder != nil {
			b.recorder.Drawn(sh)
		}
	case gestureFreehand:
		pts := b.points
		b.points = nil
		if len(pts) < 2 {
			b.Refresh()
			return
		}
		b.store.Append(state.NewFreehand(pts, b.color, b.width))
	case gestureMove:
		if b.recorder == nil || b.start == b.current {
			return
		}
		if i, ok := b.store.Selected(); ok {
			sh, _ := b.store.Shape(i)
			b.recorder.Moved(sh)
		}
	}
}

func (b *BoardWidget) DoubleTapped(e *fyne.PointEvent) {
	b.store.SelectAt(toPoint(e.Position))
}

func (b *BoardWidget) MouseIn(*desktop.MouseEvent)    {}
func (b *BoardWidget) MouseOut()                      {}
func (b *BoardWidget) MouseMoved(*desktop.MouseEvent) {}

// ShapesChanged and CenterChanged may arrive from the executor goroutine.
func (b *BoardWidget) ShapesChanged(uint64) { fyne.Do(b.Refresh) }

func (b *BoardWidget) CenterChanged(state.Point, bool) { fyne.Do(b.Refresh) }

// preview returns the shape being drawn, if any.
func (b *BoardWidget) preview() (state.Shape, bool) {
	c := b.color
	c.A = previewAlpha
	switch b.gesture {
	case gestureShape:
		return state.Shape{Kind: b.tool, Start: b.start, End: b.current, Color: c, StrokeWidth: b.width, Scale: 1}, true
	case gestureFreehand:
		return state.Shape{Kind: state.KindFreehand, Points: b.points, Color: c, StrokeWidth: b.width, Scale: 1}, true
	}
	return state.Shape{}, false
}

func (b *BoardWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &boardWidgetRenderer{board: b, background: canvas.NewRectangle(color.White)}
	r.rebuild()
	return r
}

type boardWidgetRenderer struct {
	board      *BoardWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
}

func outlineObjects(s state.Shape, c color.Color, width float32) []fyne.CanvasObject {
	var objs []fyne.CanvasObject
	for _, line := range state.Outline(s) {
		for i := 0; i+1 < len(line); i++ {
			seg := canvas.NewLine(c)
			seg.StrokeWidth = width
			seg.Position1 = fyne.NewPos(float32(line[i].X), float32(line[i].Y))
			seg.Position2 = fyne.NewPos(float32(line[i+1].X), float32(line[i+1].Y))
			objs = append(objs, seg)
		}
	}
	return objs
}

func (r *boardWidgetRenderer) rebuild() {
	b := r.board
	objects := []fyne.CanvasObject{r.background}
	for _, sh := range b.store.Shapes() {
		objects = append(objects, outlineObjects(sh, sh.Color, float32(sh.StrokeWidth))...)
	}
	if sh, ok := b.preview(); ok {
		objects = append(objects, outlineObjects(sh, sh.Color, float32(sh.StrokeWidth))...)
	}

	if i, ok := b.store.Selected(); ok {
		sh, _ := b.store.Shape(i)
		box := state.Bounds(sh).Inflate(state.SelectionPadding)
		outline := canvas.NewRectangle(color.Transparent)
		outline.StrokeColor = selectionColor
		outline.StrokeWidth = 1
		outline.Move(fyne.NewPos(float32(box.X), float32(box.Y)))
		outline.Resize(fyne.NewSize(float32(box.Width), float32(box.Height)))

		c := state.Center(sh)
		marker := canvas.NewCircle(markerColor)
		marker.Move(fyne.NewPos(float32(c.X-markerRadius), float32(c.Y-markerRadius)))
		marker.Resize(fyne.NewSize(2*markerRadius, 2*markerRadius))
		objects = append(objects, outline, marker)
	}
	r.objects = objects
}

func (r *boardWidgetRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *boardWidgetRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.board)
}

func (r *boardWidgetRenderer) Layout(size fyne.Size) { r.background.Resize(size) }

func (r *boardWidgetRenderer) MinSize() fyne.Size { return fyne.NewSize(300, 300) }

func (r *boardWidgetRenderer) Destroy() {}
