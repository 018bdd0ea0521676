package script

import (
	"image/color"
	"sync"

	"StepBoard/internal/state"
)

// Recorder turns interactive drawing into operations that replay it. Moves
// are folded into the draw step of the moved shape, so only final positions
// are recorded.
type Recorder struct {
	mu        sync.Mutex
	recording bool
	ops       []Operation
	drawn     map[string]int // shape ID -> index of its draw step
	lastTool  string
	lastColor string
	lastWidth int
}

// NewRecorder creates a stopped recorder.
func NewRecorder() *Recorder {
	return &Recorder{drawn: make(map[string]int)}
}

// Start begins a new recording, discarding the previous one.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
	r.recording = true
}

// Stop ends recording and returns the recorded operations.
func (r *Recorder) Stop() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recording = false
	return append([]Operation(nil), r.ops...)
}

// Reset discards everything recorded so far without changing the recording
// state.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

func (r *Recorder) reset() {
	r.ops = nil
	r.drawn = make(map[string]int)
	r.lastTool, r.lastColor, r.lastWidth = "", "", 0
}

// Recording reports whether actions are being captured.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Ops returns a copy of the recorded operations.
func (r *Recorder) Ops() []Operation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Operation(nil), r.ops...)
}

// Text returns the recording as step text.
func (r *Recorder) Text() string { return Format(r.Ops()) }

// Tool records a tool selection unless it repeats the previous one.
func (r *Recorder) Tool(k state.Kind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording || r.lastTool == k.String() {
		return
	}
	r.lastTool = k.String()
	r.ops = append(r.ops, SelectTool(k.String()))
}

// Color records a color selection. Colors outside the palette are skipped.
func (r *Recorder) Color(c color.NRGBA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := state.ColorName(c)
	if !r.recording || name == "" || r.lastColor == name {
		return
	}
	r.lastColor = name
	r.ops = append(r.ops, SelectColor(name))
}

// Width records a line width selection.
func (r *Recorder) Width(px int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording || r.lastWidth == px || !state.ValidStrokeWidth(px) {
		return
	}
	r.lastWidth = px
	r.ops = append(r.ops, SelectWidth(px))
}

// Drawn records a newly drawn standard shape. The tool, color and width it
// was drawn with are recorded first when they differ from the last ones.
// Only parameters a replay honours are recorded.
func (r *Recorder) Drawn(s state.Shape) {
	if !s.Kind.Standard() {
		return
	}
	r.Tool(s.Kind)
	r.Color(s.Color)
	r.Width(s.StrokeWidth)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.drawn[s.ID] = len(r.ops)
	r.ops = append(r.ops, DrawShape(s.Kind.String(), state.Center(s), state.Placement(s.Kind, s.Params)))
}

// Moved records that s now sits at its current center. A shape drawn before
// recording started gets a draw step at the new position.
func (r *Recorder) Moved(s state.Shape) {
	if !s.Kind.Standard() {
		return
	}
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return
	}
	if i, ok := r.drawn[s.ID]; ok {
		r.ops[i].Center = state.Center(s)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.Drawn(s)
}

// Cleared records a canvas clear.
func (r *Recorder) Cleared() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.drawn = make(map[string]int)
	r.ops = append(r.ops, Clear())
}
