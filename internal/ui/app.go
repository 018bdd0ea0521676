package ui

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"StepBoard/internal/export"
	"StepBoard/internal/llm"
	"StepBoard/internal/script"
	"StepBoard/internal/state"
)

// Options wires the window to the application's components.
type Options struct {
	Store      *state.Store
	Executor   *script.Executor
	Recorder   *script.Recorder
	Generator  llm.Generator // nil disables generation
	CorpusPath string
	Width      int
	Height     int
	ShareURL   string // shown in the status bar when the feed is on
	Log        *zap.Logger
}

// centerReadout shows the selected shape's center.
type centerReadout struct {
	label   *widget.Label
	onShift func()
}

func newCenterReadout() *centerReadout {
	return &centerReadout{label: widget.NewLabel(CenterText(state.Point{}, false))}
}

// CenterText formats the coordinate readout.
func CenterText(c state.Point, ok bool) string {
	if !ok {
		return "Center: none"
	}
	return fmt.Sprintf("Center: (%d, %d)", c.X, c.Y)
}

func (r *centerReadout) ShapesChanged(uint64) {}

func (r *centerReadout) CenterChanged(c state.Point, ok bool) {
	text := CenterText(c, ok)
	fyne.Do(func() {
		r.label.SetText(text)
		if r.onShift != nil {
			r.onShift()
		}
	})
}

// Window is the assembled main window.
type Window struct {
	fyne.Window
	Board   *BoardWidget
	Toolbar *Toolbar
	Script  *ScriptPanel
	center  *centerReadout
}

// NewWindow builds the main window in a. Executor progress is routed to the
// script panel.
func NewWindow(a fyne.App, opts Options) *Window {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	w := &Window{Window: a.NewWindow("StepBoard")}
	w.Resize(fyne.NewSize(float32(opts.Width+360), float32(opts.Height+80)))

	w.Board = NewBoardWidget(opts.Store, opts.Recorder, log)
	w.Toolbar = NewToolbar(w.Board)
	w.Script = NewScriptPanel(opts.Executor, opts.Recorder, opts.Generator, opts.CorpusPath, log)
	opts.Executor.OnProgress(w.Script.Progress)

	w.center = newCenterReadout()
	w.center.onShift = w.Toolbar.SyncSelection
	opts.Store.AddListener(w.center)

	w.Toolbar.OnSaveImage = func() {
		dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
			if err != nil {
				dialog.ShowError(err, w)
				return
			}
			if wc == nil {
				return
			}
			defer wc.Close()
			f, err := export.FormatFor(wc.URI().Path())
			if err == nil {
				err = export.Encode(wc, f, opts.Store.Shapes(), opts.Width, opts.Height)
			}
			if err != nil {
				log.Warn("image export failed", zap.Error(err))
				dialog.ShowError(err, w)
				return
			}
			log.Info("image exported", zap.String("uri", wc.URI().String()))
		}, w)
	}

	w.SetMainMenu(fyne.NewMainMenu(fyne.NewMenu("File",
		fyne.NewMenuItem("Save image...", w.Toolbar.OnSaveImage),
		fyne.NewMenuItem("Export control positions...", func() {
			dialog.ShowFileSave(func(wc fyne.URIWriteCloser, err error) {
				if err != nil || wc == nil {
					return
				}
				defer wc.Close()
				if err := w.Toolbar.WriteControlPositions(wc); err != nil {
					dialog.ShowError(err, w)
				}
			}, w)
		}),
	)))

	statusBar := container.NewHBox(w.center.label)
	if opts.ShareURL != "" {
		statusBar.Add(widget.NewSeparator())
		statusBar.Add(widget.NewLabel("Viewers: " + opts.ShareURL))
	}

	split := container.NewHSplit(w.Board, w.Script.Object())
	split.Offset = float64(opts.Width) / float64(opts.Width+360)
	w.SetContent(container.NewBorder(w.Toolbar.Object(), statusBar, nil, nil, split))
	return w
}

// RunApp shows the main window and blocks until it closes.
func RunApp(opts Options) {
	a := app.NewWithID("io.stepboard")
	NewWindow(a, opts).ShowAndRun()
}
