package ui

import (
	"encoding/json"
	"image/color"
	"io"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"StepBoard/internal/state"
)

// --- Custom Widget for Color Swatches ---
type colorSwatch struct {
	widget.BaseWidget
	Name     string
	Color    color.NRGBA
	OnTapped func(name string, c color.NRGBA)
}

func newColorSwatch(name string, tapped func(string, color.NRGBA)) *colorSwatch {
	c, _ := state.LookupColor(name)
	s := &colorSwatch{Name: name, Color: c, OnTapped: tapped}
	s.ExtendBaseWidget(s)
	return s
}

func (s *colorSwatch) CreateRenderer() fyne.WidgetRenderer {
	rect := canvas.NewRectangle(s.Color)
	rect.SetMinSize(fyne.NewSize(28, 28))

	border := canvas.NewRectangle(color.Transparent)
	border.StrokeColor = color.Gray{Y: 150}
	border.StrokeWidth = 1

	return widget.NewSimpleRenderer(container.NewStack(rect, border))
}

func (s *colorSwatch) Tapped(_ *fyne.PointEvent) {
	if s.OnTapped != nil {
		s.OnTapped(s.Name, s.Color)
	}
}

// Toolbar holds the drawing controls. Every control an automation driver
// can press is registered under its control identifier.
type Toolbar struct {
	board    *BoardWidget
	controls map[string]fyne.CanvasObject

	tools       map[state.Kind]*widget.Button
	widths      map[int]*widget.Button
	scaleSlider *widget.Slider
	rotSlider   *widget.Slider

	// OnSaveImage is called by the save button.
	OnSaveImage func()
}

// NewToolbar builds the controls for board.
func NewToolbar(board *BoardWidget) *Toolbar {
	t := &Toolbar{board: board, controls: make(map[string]fyne.CanvasObject)}

	// --- Tools ---
	t.tools = make(map[state.Kind]*widget.Button, len(state.Kinds()))
	for _, k := range state.Kinds() {
		btn := widget.NewButton(k.String(), func() { t.SelectTool(k) })
		t.tools[k] = btn
		t.controls[state.ToolControl(k)] = btn
	}

	// --- Color Palette ---
	for _, name := range state.ColorNames {
		t.controls[state.ColorControl(name)] = newColorSwatch(name, func(_ string, c color.NRGBA) { board.SetColor(c) })
	}

	// --- Stroke Widths ---
	t.widths = make(map[int]*widget.Button, state.MaxStrokeWidth-state.MinStrokeWidth+1)
	for px := state.MinStrokeWidth; px <= state.MaxStrokeWidth; px++ {
		btn := widget.NewButton(strconv.Itoa(px), func() { t.SelectWidth(px) })
		t.widths[px] = btn
		t.controls[state.WidthControl(px)] = btn
	}
	t.highlight()

	// --- Selected shape ---
	t.scaleSlider = widget.NewSlider(state.MinScalePercent, state.MaxScalePercent)
	t.scaleSlider.Step = 1
	t.scaleSlider.SetValue(100)
	t.scaleSlider.OnChanged = func(v float64) {
		board.store.SetSelectedScale(state.ScaleFromPercent(int(v)))
	}
	t.rotSlider = widget.NewSlider(0, 359)
	t.rotSlider.Step = 1
	t.rotSlider.OnChanged = func(v float64) {
		board.store.SetSelectedRotation(int(v))
	}
	del := widget.NewButtonWithIcon("", theme.DeleteIcon(), func() { board.store.DeleteSelected() })
	clearBtn := widget.NewButtonWithIcon("Clear", theme.ContentClearIcon(), board.Clear)
	save := widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() {
		if t.OnSaveImage != nil {
			t.OnSaveImage()
		}
	})
	t.controls["clear"] = clearBtn
	t.controls["save"] = save
	t.controls["delete"] = del

	return t
}

// Object assembles the toolbar: tools and colors on the first row, widths
// and selection edits on the second.
func (t *Toolbar) Object() fyne.CanvasObject {
	wrap := func(o fyne.CanvasObject) fyne.CanvasObject {
		return container.New(layout.NewGridWrapLayout(fyne.NewSize(110, 35)), o)
	}
	tools := make([]fyne.CanvasObject, 0, len(t.tools))
	for _, k := range state.Kinds() {
		tools = append(tools, t.tools[k])
	}
	widths := make([]fyne.CanvasObject, 0, len(t.widths))
	for px := state.MinStrokeWidth; px <= state.MaxStrokeWidth; px++ {
		widths = append(widths, t.widths[px])
	}
	return container.NewVBox(
		container.NewHBox(
			widget.NewLabel("Tool:"),
			container.NewHBox(tools...),
			widget.NewSeparator(),
			widget.NewLabel("Color:"),
			container.NewHBox(t.colorSwatches()...),
		),
		container.NewHBox(
			widget.NewLabel("Width:"),
			container.NewHBox(widths...),
			widget.NewSeparator(),
			widget.NewLabel("Scale:"),
			wrap(t.scaleSlider),
			widget.NewLabel("Rotate:"),
			wrap(t.rotSlider),
			t.controls["delete"],
			layout.NewSpacer(),
			t.controls["clear"],
			t.controls["save"],
		),
	)
}

// SelectTool switches the board's drawing tool.
func (t *Toolbar) SelectTool(k state.Kind) {
	if k != t.board.Tool() {
		t.board.SetTool(k)
	}
	t.highlight()
}

// SelectWidth sets the board's pen width.
func (t *Toolbar) SelectWidth(px int) {
	t.board.SetStrokeWidth(px)
	t.highlight()
}

// highlight marks the active tool and width buttons.
func (t *Toolbar) highlight() {
	for k, btn := range t.tools {
		setActive(btn, k == t.board.Tool())
	}
	for px, btn := range t.widths {
		setActive(btn, px == t.board.width)
	}
}

func setActive(btn *widget.Button, on bool) {
	want := widget.MediumImportance
	if on {
		want = widget.HighImportance
	}
	if btn.Importance != want {
		btn.Importance = want
		btn.Refresh()
	}
}

func (t *Toolbar) colorSwatches() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, len(state.ColorNames))
	for _, name := range state.ColorNames {
		objs = append(objs, t.controls[state.ColorControl(name)])
	}
	return objs
}

// SyncSelection resets the scale and rotation sliders to the selected shape.
func (t *Toolbar) SyncSelection() {
	i, ok := t.board.store.Selected()
	if !ok {
		return
	}
	sh, _ := t.board.store.Shape(i)
	onScale, onRot := t.scaleSlider.OnChanged, t.rotSlider.OnChanged
	t.scaleSlider.OnChanged, t.rotSlider.OnChanged = nil, nil
	t.scaleSlider.SetValue(sh.Scale * 100)
	t.rotSlider.SetValue(float64(sh.Rotation))
	t.scaleSlider.OnChanged, t.rotSlider.OnChanged = onScale, onRot
}

// Control returns the widget registered under id.
func (t *Toolbar) Control(id string) (fyne.CanvasObject, bool) {
	o, ok := t.controls[id]
	return o, ok
}

// ControlPositions maps every control identifier to the absolute window
// position of its widget's center.
func (t *Toolbar) ControlPositions() map[string]fyne.Position {
	out := make(map[string]fyne.Position, len(t.controls))
	drv := fyne.CurrentApp().Driver()
	for id, o := range t.controls {
		pos := drv.AbsolutePositionForObject(o)
		size := o.Size()
		out[id] = pos.Add(fyne.NewPos(size.Width/2, size.Height/2))
	}
	return out
}

type controlPosition struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

// WriteControlPositions writes ControlPositions as indented JSON.
func (t *Toolbar) WriteControlPositions(w io.Writer) error {
	out := make(map[string]controlPosition, len(t.controls))
	for id, p := range t.ControlPositions() {
		out[id] = controlPosition{X: p.X, Y: p.Y}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
