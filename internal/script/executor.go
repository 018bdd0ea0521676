package script

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"StepBoard/internal/state"
)

var (
	// ErrUnknownKind aborts a run whose placement names a kind that cannot
	// be drawn from a center.
	ErrUnknownKind = errors.New("unknown shape kind")
	// ErrBusy is returned when Run is called while another run is active.
	ErrBusy = errors.New("executor already running")
)

// Status is the executor's lifecycle state.
type Status int

const (
	Idle Status = iota
	Running
	Completed
	Aborted
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Aborted:
		return "aborted"
	}
	return "unknown"
}

// Cursor reports which operation is being applied. Current is -1 outside a
// run.
type Cursor struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Defaults is the working state every run starts from.
type Defaults struct {
	Tool  state.Kind
	Color string
	Width int
}

// DefaultSettings matches the board's initial pen: black, 2px rectangles.
func DefaultSettings() Defaults {
	return Defaults{Tool: state.KindRectangle, Color: "black", Width: 2}
}

// Option configures an Executor.
type Option func(*Executor)

// WithDefaults sets the working state a run starts from.
func WithDefaults(d Defaults) Option { return func(e *Executor) { e.defaults = d } }

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option { return func(e *Executor) { e.tracer = t } }

// WithProgress registers fn to receive the cursor at the start of a run,
// before each step and at the end. It runs on the goroutine calling Run.
func WithProgress(fn func(Cursor)) Option {
	return func(e *Executor) { e.progress = append(e.progress, fn) }
}

// Executor replays operations against a store, one step at a time.
type Executor struct {
	store    *state.Store
	log      *zap.Logger
	tracer   trace.Tracer
	defaults Defaults
	progress []func(Cursor)

	mu     sync.Mutex
	status Status
	cursor Cursor
	err    error
}

// NewExecutor creates an idle executor bound to store.
func NewExecutor(store *state.Store, log *zap.Logger, opts ...Option) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Executor{
		store:    store,
		log:      log.Named("executor"),
		tracer:   otel.Tracer("StepBoard/internal/script"),
		defaults: DefaultSettings(),
		cursor:   Cursor{Current: -1},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// working holds the tool, color and width selected so far in one run.
type working struct {
	tool      state.Kind
	color     color.NRGBA
	colorName string
	width     int
}

func (e *Executor) newWorking() working {
	w := working{tool: e.defaults.Tool, width: e.defaults.Width, colorName: e.defaults.Color}
	c, ok := state.LookupColor(e.defaults.Color)
	if !ok {
		c, _ = state.LookupColor("black")
		w.colorName = "black"
	}
	w.color = c
	if !state.ValidStrokeWidth(w.width) {
		w.width = DefaultSettings().Width
	}
	return w
}

// Run clears the store and applies ops in order. It stops at the first
// placement of an unknown kind, or when ctx is cancelled between steps; the
// shapes drawn so far stay in the store.
func (e *Executor) Run(ctx context.Context, ops []Operation) error {
	if !e.begin(len(ops)) {
		return ErrBusy
	}

	runID := state.NewID()
	log := e.log.With(zap.String("run", runID))
	ctx, span := e.tracer.Start(ctx, "script.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.steps", len(ops)),
	))
	defer span.End()

	log.Info("run started", zap.Int("steps", len(ops)))
	e.store.Clear()
	e.notify()

	w := e.newWorking()
	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return e.abort(span, log, fmt.Errorf("step %d: %w", i+1, err))
		}
		e.advance(i)
		span.AddEvent("step", trace.WithAttributes(
			attribute.Int("step.index", i),
			attribute.String("step.op", op.Op.String()),
			attribute.String("step.name", op.Name),
		))
		if err := e.apply(&w, op, log); err != nil {
			return e.abort(span, log, fmt.Errorf("step %d: %w", i+1, err))
		}
	}

	e.finish(Completed, nil)
	span.SetStatus(codes.Ok, "")
	log.Info("run completed", zap.Int("shapes", e.store.Len()))
	return nil
}

func (e *Executor) apply(w *working, op Operation, log *zap.Logger) error {
	switch op.Op {
	case OpSelectTool:
		k, ok := state.ParseKind(op.Name)
		if !ok {
			log.Warn("unknown tool ignored", zap.String("tool", op.Name))
			return nil
		}
		w.tool = k
	case OpSelectColor:
		c, ok := state.LookupColor(op.Name)
		if !ok {
			log.Warn("unknown color ignored", zap.String("color", op.Name))
			return nil
		}
		w.color, w.colorName = c, op.Name
	case OpSelectWidth:
		if !state.ValidStrokeWidth(op.Width) {
			log.Warn("line width out of range ignored", zap.Int("width", op.Width))
			return nil
		}
		w.width = op.Width
	case OpDrawShape:
		k, ok := state.ParseKind(op.Name)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownKind, op.Name)
		}
		start, end, ok := state.Corners(k, op.Center, op.Params)
		if !ok {
			return fmt.Errorf("%w: %s cannot be placed by center", ErrUnknownKind, k)
		}
		idx := e.store.Append(state.NewShape(k, start, end, w.color, w.width))
		log.Debug("shape placed",
			zap.Int("index", idx),
			zap.Stringer("kind", k),
			zap.Int("x", op.Center.X),
			zap.Int("y", op.Center.Y),
			zap.String("color", w.colorName),
			zap.Stringer("tool", w.tool))
	case OpClear:
		e.store.Clear()
	default:
		log.Warn("unsupported operation ignored", zap.Stringer("op", op.Op))
	}
	return nil
}

func (e *Executor) begin(total int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == Running {
		return false
	}
	e.status = Running
	e.cursor = Cursor{Current: -1, Total: total}
	e.err = nil
	return true
}

func (e *Executor) advance(i int) {
	e.mu.Lock()
	e.cursor.Current = i
	e.mu.Unlock()
	e.notify()
}

func (e *Executor) abort(span trace.Span, log *zap.Logger, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	log.Warn("run aborted", zap.Error(err), zap.Int("shapes", e.store.Len()))
	e.finish(Aborted, err)
	return err
}

func (e *Executor) finish(s Status, err error) {
	e.mu.Lock()
	e.status = s
	e.err = err
	e.cursor.Current = -1
	e.mu.Unlock()
	e.notify()
}

// OnProgress adds a progress callback after construction.
func (e *Executor) OnProgress(fn func(Cursor)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress = append(e.progress, fn)
}

func (e *Executor) notify() {
	e.mu.Lock()
	c := e.cursor
	fns := slices.Clone(e.progress)
	e.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Status returns the lifecycle state of the latest run.
func (e *Executor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Cursor returns the current progress.
func (e *Executor) Cursor() Cursor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor
}

// Err returns why the latest run aborted, or nil.
func (e *Executor) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}
