package ui

import (
	"bytes"
	"encoding/json"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"fyne.io/fyne/v2/widget"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StepBoard/internal/state"
)

func TestToolbarRegistersControls(t *testing.T) {
	b, _, _ := newTestBoard(t)
	tb := NewToolbar(b)
	w := test.NewWindow(tb.Object())
	defer w.Close()

	for _, k := range state.Kinds() {
		_, ok := tb.Control(state.ToolControl(k))
		assert.True(t, ok, k.String())
	}
	for _, name := range state.ColorNames {
		_, ok := tb.Control(state.ColorControl(name))
		assert.True(t, ok, name)
	}
	for px := state.MinStrokeWidth; px <= state.MaxStrokeWidth; px++ {
		_, ok := tb.Control(state.WidthControl(px))
		assert.True(t, ok, px)
	}

	pos := tb.ControlPositions()
	assert.Len(t, pos, len(state.Kinds())+len(state.ColorNames)+state.MaxStrokeWidth-state.MinStrokeWidth+1+3)
	assert.Contains(t, pos, "clear")

	var buf bytes.Buffer
	require.NoError(t, tb.WriteControlPositions(&buf))
	var decoded map[string]map[string]float32
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Contains(t, decoded, "color/red")
	assert.Contains(t, decoded["width/5"], "x")
}

func TestToolbarSwatchSetsColor(t *testing.T) {
	b, _, _ := newTestBoard(t)
	tb := NewToolbar(b)

	o, ok := tb.Control(state.ColorControl("green"))
	require.True(t, ok)
	test.Tap(o.(*colorSwatch))

	green, _ := state.LookupColor("green")
	assert.Equal(t, green, b.color)
}

func TestToolbarToolButtons(t *testing.T) {
	b, _, _ := newTestBoard(t)
	tb := NewToolbar(b)

	o, ok := tb.Control(state.ToolControl(state.KindStar))
	require.True(t, ok)
	test.Tap(o.(*widget.Button))
	assert.Equal(t, state.KindStar, b.Tool())
	assert.Equal(t, widget.HighImportance, tb.tools[state.KindStar].Importance)
	assert.Equal(t, widget.MediumImportance, tb.tools[state.KindRectangle].Importance)
}

func TestToolbarWidthButtons(t *testing.T) {
	b, _, _ := newTestBoard(t)
	tb := NewToolbar(b)

	o, ok := tb.Control(state.WidthControl(7))
	require.True(t, ok)
	test.Tap(o.(*widget.Button))
	assert.Equal(t, 7, b.width)
	assert.Equal(t, widget.HighImportance, tb.widths[7].Importance)
	assert.Equal(t, widget.MediumImportance, tb.widths[2].Importance)
}

func TestControlPositionsAreDistinct(t *testing.T) {
	b, _, _ := newTestBoard(t)
	tb := NewToolbar(b)
	w := test.NewWindow(tb.Object())
	defer w.Close()
	w.Resize(fyne.NewSize(2400, 200))

	pos := tb.ControlPositions()
	assert.NotEqual(t, pos[state.ToolControl(state.KindRectangle)], pos[state.ToolControl(state.KindCircle)])
	assert.NotEqual(t, pos[state.WidthControl(1)], pos[state.WidthControl(2)])

	seen := make(map[fyne.Position]string, len(pos))
	for id, p := range pos {
		if other, dup := seen[p]; dup {
			t.Errorf("%s and %s share position %v", id, other, p)
		}
		seen[p] = id
	}
}

func TestToolbarScalesSelection(t *testing.T) {
	b, store, _ := newTestBoard(t)
	tb := NewToolbar(b)
	press(b, 10, 10)
	drag(b, 50, 50)
	release(b, 50, 50)
	store.Select(0)

	tb.scaleSlider.SetValue(150)
	tb.rotSlider.SetValue(45)
	sh, _ := store.Shape(0)
	assert.InDelta(t, 1.5, sh.Scale, 1e-9)
	assert.Equal(t, 45, sh.Rotation)
}
