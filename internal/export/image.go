// Package export renders a drawing to raster image files.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/gg"

	"StepBoard/internal/state"
)

// Format is a raster encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"

	jpegQuality = 92
)

// ErrUnsupportedFormat is returned for file extensions other than PNG/JPEG.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// FormatFor picks the encoding from a file name's extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Render draws shapes in z-order onto a white canvas of the given size.
// The caller must Close the returned context.
func Render(shapes []state.Shape, width, height int) (*gg.Context, error) {
	dc := gg.NewContext(width, height)
	dc.ClearWithColor(gg.RGB(1, 1, 1))
	dc.SetLineCap(gg.LineCapRound)
	dc.SetLineJoin(gg.LineJoinRound)

	for _, s := range shapes {
		lines := state.Outline(s)
		if len(lines) == 0 {
			continue
		}
		dc.SetColor(s.Color)
		dc.SetLineWidth(float64(max(1, s.StrokeWidth)))
		for _, line := range lines {
			dc.MoveTo(line[0].X, line[0].Y)
			for _, p := range line[1:] {
				dc.LineTo(p.X, p.Y)
			}
		}
		if err := dc.Stroke(); err != nil {
			dc.Close()
			return nil, fmt.Errorf("stroke %s %s: %w", s.Kind, s.ID, err)
		}
	}
	return dc, nil
}

// Encode renders shapes and writes them to w in the given format.
func Encode(w io.Writer, f Format, shapes []state.Shape, width, height int) error {
	dc, err := Render(shapes, width, height)
	if err != nil {
		return err
	}
	defer dc.Close()

	switch f {
	case PNG:
		return dc.EncodePNG(w)
	case JPEG:
		return dc.EncodeJPEG(w, jpegQuality)
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// SaveFile renders shapes into the file at path, choosing the format from
// its extension.
func SaveFile(path string, shapes []state.Shape, width, height int) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(out, f, shapes, width, height); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return out.Close()
}
