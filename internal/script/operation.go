// Package script turns step text into drawing operations and replays them
// against a shape store.
package script

import "StepBoard/internal/state"

// Op identifies an operation type.
type Op int

const (
	OpSelectTool Op = iota + 1
	OpSelectColor
	OpSelectWidth
	OpDrawShape
	OpClear
)

func (o Op) String() string {
	switch o {
	case OpSelectTool:
		return "select_tool"
	case OpSelectColor:
		return "select_color"
	case OpSelectWidth:
		return "select_width"
	case OpDrawShape:
		return "draw_shape"
	case OpClear:
		return "clear"
	}
	return "unknown"
}

// Operation is one executable step. Name holds the tool, color or shape kind
// exactly as written, so the executor decides what is recognized.
type Operation struct {
	Op     Op
	Name   string
	Width  int
	Center state.Point
	Params state.Params
}

func SelectTool(name string) Operation  { return Operation{Op: OpSelectTool, Name: name} }
func SelectColor(name string) Operation { return Operation{Op: OpSelectColor, Name: name} }
func SelectWidth(px int) Operation      { return Operation{Op: OpSelectWidth, Width: px} }
func Clear() Operation                  { return Operation{Op: OpClear} }

// DrawShape places a shape of the named kind centered on center. Unset
// parameters fall back to the kind's defaults at execution time.
func DrawShape(kind string, center state.Point, p state.Params) Operation {
	return Operation{Op: OpDrawShape, Name: kind, Center: center, Params: p}
}
