package state

import (
	"fmt"
	"image/color"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Listener observes a Store. Calls arrive after the store lock is released,
// on the goroutine that made the change.
type Listener interface {
	// ShapesChanged signals that a repaint is due.
	ShapesChanged(revision uint64)
	// CenterChanged reports the selected shape's center; ok is false when
	// nothing is selected.
	CenterChanged(center Point, ok bool)
}

// Store owns the drawing document: an ordered list of shapes, where slice
// order is z-order, and an optional selection.
type Store struct {
	shapes    []Shape
	selected  int // -1 when nothing is selected
	clock     Clock
	listeners []Listener
	log       *zap.Logger
	mu        sync.RWMutex
}

// NewStore creates an empty document.
func NewStore(log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{selected: -1, log: log.Named("store")}
}

// AddListener registers l for change notifications.
func (s *Store) AddListener(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// change describes which notifications an update produces.
type change struct {
	shapes   bool
	center   bool
	centerAt Point
	centerOK bool
}

func (s *Store) update(fn func() change) {
	var (
		ch        change
		rev       uint64
		listeners []Listener
	)
	func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		ch = fn()
		if ch.shapes {
			rev = s.clock.Tick()
		}
		listeners = slices.Clone(s.listeners)
	}()
	for _, l := range listeners {
		if ch.shapes {
			l.ShapesChanged(rev)
		}
		if ch.center {
			l.CenterChanged(ch.centerAt, ch.centerOK)
		}
	}
}

// selectionLocked returns a center change for the current selection.
func (s *Store) selectionLocked() change {
	if s.selected < 0 {
		return change{center: true}
	}
	return change{center: true, centerAt: Center(s.shapes[s.selected]), centerOK: true}
}

// Append adds a shape on top of the document and clears the selection. It
// returns the new shape's index.
func (s *Store) Append(sh Shape) int {
	var idx int
	s.update(func() change {
		if sh.ID == "" {
			sh.ID = NewID()
		}
		if sh.Scale == 0 {
			sh.Scale = 1
		}
		s.shapes = append(s.shapes, sh.clone())
		s.selected = -1
		idx = len(s.shapes) - 1
		s.log.Debug("shape appended",
			zap.Int("index", idx),
			zap.String("id", sh.ID),
			zap.Stringer("kind", sh.Kind))
		ch := s.selectionLocked()
		ch.shapes = true
		return ch
	})
	return idx
}

// Select marks the shape at index i as selected. An out-of-range index is a
// programming error and panics.
func (s *Store) Select(i int) {
	s.update(func() change {
		if i < 0 || i >= len(s.shapes) {
			panic(fmt.Sprintf("state: select index %d out of range [0,%d)", i, len(s.shapes)))
		}
		s.selected = i
		return s.selectionLocked()
	})
}

// SelectAt selects the first shape in z-order that p hits, or clears the
// selection when none does. It reports whether a shape was selected.
func (s *Store) SelectAt(p Point) bool {
	found := false
	s.update(func() change {
		s.selected = -1
		for i, sh := range s.shapes {
			if HitTest(p, sh) {
				s.selected = i
				found = true
				break
			}
		}
		return s.selectionLocked()
	})
	return found
}

// ClearSelection drops the selection.
func (s *Store) ClearSelection() {
	s.update(func() change {
		s.selected = -1
		return s.selectionLocked()
	})
}

// MoveSelected translates the selected shape by (dx, dy).
func (s *Store) MoveSelected(dx, dy int) {
	s.update(func() change {
		if s.selected < 0 {
			return change{}
		}
		s.shapes[s.selected].translate(dx, dy)
		ch := s.selectionLocked()
		ch.shapes = true
		return ch
	})
}

// MoveSelectedTo moves the selected shape so its center lands on target.
func (s *Store) MoveSelectedTo(target Point) {
	s.update(func() change {
		if s.selected < 0 {
			return change{}
		}
		sh := &s.shapes[s.selected]
		c := Center(*sh)
		sh.translate(target.X-c.X, target.Y-c.Y)
		ch := s.selectionLocked()
		ch.shapes = true
		return ch
	})
}

// MoveTo moves the shape at index i so its center lands on target, without
// touching the selection. It reports false for an out-of-range index.
func (s *Store) MoveTo(i int, target Point) bool {
	ok := false
	s.update(func() change {
		if i < 0 || i >= len(s.shapes) {
			return change{}
		}
		ok = true
		sh := &s.shapes[i]
		c := Center(*sh)
		sh.translate(target.X-c.X, target.Y-c.Y)
		ch := change{shapes: true}
		if i == s.selected {
			ch = s.selectionLocked()
			ch.shapes = true
		}
		return ch
	})
	return ok
}

// SetSelectedScale sets the selected shape's scale, clamped to
// [MinScale, MaxScale]. Freehand strokes are not scaled and NaN leaves the
// scale unchanged.
func (s *Store) SetSelectedScale(f float64) {
	s.update(func() change {
		if s.selected < 0 || s.shapes[s.selected].Kind == KindFreehand || math.IsNaN(f) {
			return change{}
		}
		s.shapes[s.selected].Scale = math.Max(MinScale, math.Min(MaxScale, f))
		ch := s.selectionLocked()
		ch.shapes = true
		return ch
	})
}

// SetSelectedRotation sets the selected shape's rotation, normalized to
// [0, 360). Freehand strokes are not rotated.
func (s *Store) SetSelectedRotation(deg int) {
	s.update(func() change {
		if s.selected < 0 || s.shapes[s.selected].Kind == KindFreehand {
			return change{}
		}
		s.shapes[s.selected].Rotation = ((deg % 360) + 360) % 360
		return change{shapes: true}
	})
}

// SetSelectedColor recolors the selected shape.
func (s *Store) SetSelectedColor(c color.NRGBA) {
	s.update(func() change {
		if s.selected < 0 {
			return change{}
		}
		s.shapes[s.selected].Color = c
		return change{shapes: true}
	})
}

// SetSelectedStrokeWidth changes the selected shape's line width.
func (s *Store) SetSelectedStrokeWidth(px int) {
	s.update(func() change {
		if s.selected < 0 {
			return change{}
		}
		s.shapes[s.selected].StrokeWidth = px
		return change{shapes: true}
	})
}

// DeleteSelected removes the selected shape and reports whether one was
// removed.
func (s *Store) DeleteSelected() bool {
	deleted := false
	s.update(func() change {
		if s.selected < 0 {
			return change{}
		}
		id := s.shapes[s.selected].ID
		s.shapes = slices.Delete(s.shapes, s.selected, s.selected+1)
		s.selected = -1
		deleted = true
		s.log.Debug("shape deleted", zap.String("id", id))
		return change{shapes: true, center: true}
	})
	return deleted
}

// Clear empties the document and the selection.
func (s *Store) Clear() {
	s.update(func() change {
		n := len(s.shapes)
		s.shapes = nil
		s.selected = -1
		s.log.Debug("document cleared", zap.Int("removed", n))
		return change{shapes: true, center: true}
	})
}

// Len returns the number of shapes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.shapes)
}

// Shape returns a copy of the shape at index i.
func (s *Store) Shape(i int) (Shape, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.shapes) {
		return Shape{}, false
	}
	return s.shapes[i].clone(), true
}

// Shapes returns a copy of the document in z-order.
func (s *Store) Shapes() []Shape {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Shape, len(s.shapes))
	for i, sh := range s.shapes {
		out[i] = sh.clone()
	}
	return out
}

// Selected returns the selected index.
func (s *Store) Selected() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected, s.selected >= 0
}

// SelectedCenter returns the selected shape's center.
func (s *Store) SelectedCenter() (Point, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected < 0 {
		return Point{}, false
	}
	return Center(s.shapes[s.selected]), true
}

// Revision returns the revision of the latest change.
func (s *Store) Revision() uint64 { return s.clock.Now() }
