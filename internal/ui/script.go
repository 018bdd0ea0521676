package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"StepBoard/internal/corpus"
	"StepBoard/internal/llm"
	"StepBoard/internal/script"
)

// ScriptPanel edits, generates, records and replays step text.
type ScriptPanel struct {
	exec       *script.Executor
	recorder   *script.Recorder
	gen        llm.Generator
	corpusPath string
	log        *zap.Logger

	description *widget.Entry
	text        *widget.Entry
	status      *widget.Label
	steps       *widget.List
	autoRun     *widget.Check
	record      *widget.Check
	runBtn      *widget.Button
	stopBtn     *widget.Button
	genBtn      *widget.Button

	mu     sync.Mutex
	lines  []string
	cancel context.CancelFunc
}

// NewScriptPanel builds the panel. gen may be nil, which hides generation.
func NewScriptPanel(exec *script.Executor, recorder *script.Recorder, gen llm.Generator, corpusPath string, log *zap.Logger) *ScriptPanel {
	if log == nil {
		log = zap.NewNop()
	}
	p := &ScriptPanel{
		exec:       exec,
		recorder:   recorder,
		gen:        gen,
		corpusPath: corpusPath,
		log:        log.Named("script"),
	}

	p.description = widget.NewMultiLineEntry()
	p.description.SetPlaceHolder("Describe a drawing...")
	p.description.Wrapping = fyne.TextWrapWord

	p.text = widget.NewMultiLineEntry()
	p.text.SetPlaceHolder("Step 1, select drawing tool Rectangle;Step 2, ...")
	p.text.Wrapping = fyne.TextWrapWord

	p.status = widget.NewLabel("Ready")
	p.steps = widget.NewList(
		func() int {
			p.mu.Lock()
			defer p.mu.Unlock()
			return len(p.lines)
		},
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.ListItemID, o fyne.CanvasObject) {
			p.mu.Lock()
			defer p.mu.Unlock()
			if id < len(p.lines) {
				o.(*widget.Label).SetText(p.lines[id])
			}
		},
	)

	p.runBtn = widget.NewButtonWithIcon("Run", theme.MediaPlayIcon(), p.Run)
	p.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), p.Stop)
	p.stopBtn.Disable()
	p.genBtn = widget.NewButtonWithIcon("Generate", theme.ComputerIcon(), p.Generate)
	p.autoRun = widget.NewCheck("Run when generated", nil)
	p.autoRun.SetChecked(true)
	if gen == nil {
		p.genBtn.Disable()
		p.autoRun.Disable()
	}
	p.record = widget.NewCheck("Record", p.setRecording)

	return p
}

// Object assembles the panel.
func (p *ScriptPanel) Object() fyne.CanvasObject {
	renumber := widget.NewButton("Renumber", func() { p.text.SetText(script.Renumber(p.text.Text)) })
	sample := widget.NewButtonWithIcon("Save sample", theme.DocumentSaveIcon(), p.SaveSample)

	top := container.NewVBox(
		widget.NewLabel("Description"),
		p.description,
		container.NewHBox(p.genBtn, p.autoRun),
		widget.NewLabel("Steps"),
		p.text,
		container.NewHBox(p.runBtn, p.stopBtn, renumber, p.record, sample),
		p.status,
	)
	return container.NewBorder(top, nil, nil, nil, p.steps)
}

// Text returns the step text being edited.
func (p *ScriptPanel) Text() string { return p.text.Text }

// SetText replaces the step text.
func (p *ScriptPanel) SetText(s string) { p.text.SetText(s) }

// Run replays the step text on a background goroutine.
func (p *ScriptPanel) Run() {
	text := p.text.Text
	ops := script.Parse(text)
	if len(ops) == 0 {
		p.status.SetText("Nothing to run")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.lines = script.StepLines(ops)
	p.cancel = cancel
	p.mu.Unlock()
	p.steps.UnselectAll()
	p.steps.Refresh()
	p.runBtn.Disable()
	p.stopBtn.Enable()

	go func() {
		defer cancel()
		err := p.exec.Run(ctx, ops)
		fyne.Do(func() {
			p.runBtn.Enable()
			p.stopBtn.Disable()
			switch {
			case err == nil:
				p.status.SetText(fmt.Sprintf("Completed %d steps", len(ops)))
			case errors.Is(err, script.ErrBusy):
				p.status.SetText("A run is already in progress")
			default:
				p.status.SetText("Stopped: " + err.Error())
			}
		})
	}()
}

// Stop cancels the active run before its next step.
func (p *ScriptPanel) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Progress highlights the step the executor is on.
func (p *ScriptPanel) Progress(c script.Cursor) {
	fyne.Do(func() {
		p.mu.Lock()
		n := len(p.lines)
		p.mu.Unlock()
		if c.Current < 0 || c.Current >= n {
			p.steps.UnselectAll()
			return
		}
		p.steps.Select(c.Current)
		p.steps.ScrollTo(c.Current)
		p.status.SetText(fmt.Sprintf("Step %d of %d", c.Current+1, c.Total))
	})
}

// Generate asks the generator for step text and streams it into the editor.
func (p *ScriptPanel) Generate() {
	desc := strings.TrimSpace(p.description.Text)
	if p.gen == nil || desc == "" {
		return
	}
	p.genBtn.Disable()
	p.text.SetText("")
	p.status.SetText("Generating...")

	go func() {
		var sb strings.Builder
		answer, err := p.gen.Generate(context.Background(), desc, func(chunk string) {
			sb.WriteString(chunk)
			text := sb.String()
			fyne.Do(func() { p.text.SetText(text) })
		})
		fyne.Do(func() {
			p.genBtn.Enable()
			if err != nil {
				p.log.Warn("generation failed", zap.Error(err))
				p.status.SetText("Generation failed: " + err.Error())
				return
			}
			p.text.SetText(answer)
			p.status.SetText("Generated")
			if p.autoRun.Checked {
				p.Run()
			}
		})
	}()
}

func (p *ScriptPanel) setRecording(on bool) {
	if p.recorder == nil {
		return
	}
	if on {
		p.recorder.Start()
		p.status.SetText("Recording")
		return
	}
	if ops := p.recorder.Stop(); len(ops) > 0 {
		p.text.SetText(script.Format(ops))
	}
	p.status.SetText("Recording stopped")
}

// SaveSample appends the description and step text to the training corpus.
func (p *ScriptPanel) SaveSample() {
	n, err := corpus.Append(p.corpusPath, p.description.Text, p.text.Text)
	if err != nil {
		p.status.SetText("Not saved: " + err.Error())
		return
	}
	p.log.Info("training sample saved", zap.String("path", p.corpusPath), zap.Int("count", n))
	p.status.SetText(fmt.Sprintf("Saved sample %d to %s", n, p.corpusPath))
}
