package state

import (
	"fmt"
	"image/color"
	"strings"
)

const (
	MinStrokeWidth = 1
	MaxStrokeWidth = 20

	MinScale = 0.1
	MaxScale = 5.0

	MinScalePercent = 1
	MaxScalePercent = 200
)

// ColorNames lists the palette in toolbar order.
var ColorNames = []string{"red", "yellow", "blue", "green", "black", "white", "pink", "purple"}

var palette = map[string]color.NRGBA{
	"red":    {R: 255, A: 255},
	"yellow": {R: 255, G: 255, A: 255},
	"blue":   {B: 255, A: 255},
	"green":  {G: 255, A: 255},
	"black":  {A: 255},
	"white":  {R: 255, G: 255, B: 255, A: 255},
	"pink":   {R: 255, G: 192, B: 203, A: 255},
	"purple": {R: 128, B: 128, A: 255},
}

// LookupColor resolves a palette name case-insensitively.
func LookupColor(name string) (color.NRGBA, bool) {
	c, ok := palette[foldName(name)]
	return c, ok
}

// ColorName returns the palette name of c, or "" when c is not in the palette.
func ColorName(c color.NRGBA) string {
	for _, n := range ColorNames {
		if palette[n] == c {
			return n
		}
	}
	return ""
}

// ValidStrokeWidth reports whether px is a selectable line width.
func ValidStrokeWidth(px int) bool { return px >= MinStrokeWidth && px <= MaxStrokeWidth }

// ScaleFromPercent maps a size percentage to a scale factor, clamping the
// percentage to the selectable range.
func ScaleFromPercent(pct int) float64 {
	pct = max(MinScalePercent, min(MaxScalePercent, pct))
	return float64(pct) / 100
}

// Control identifiers are stable names for toolbar selectors so an
// automation driver can locate them.

func ToolControl(k Kind) string       { return "tool/" + k.String() }
func ColorControl(name string) string { return "color/" + strings.ToLower(name) }
func WidthControl(px int) string      { return fmt.Sprintf("width/%d", px) }
