package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"StepBoard/internal/script"
	"StepBoard/internal/state"
)

const writeWait = 5 * time.Second

// Event is one message on the feed. Type is "repaint", "center",
// "progress" or "error"; the remaining fields are set according to it.
type Event struct {
	Type     string      `json:"type"`
	Revision uint64      `json:"revision,omitempty"`
	Shapes   []WireShape `json:"shapes,omitempty"`
	X        *int        `json:"x,omitempty"`
	Y        *int        `json:"y,omitempty"`
	None     bool        `json:"none,omitempty"`
	Current  *int        `json:"current,omitempty"`
	Total    *int        `json:"total,omitempty"`
	Message  string      `json:"message,omitempty"`
}

// Command is a message a viewer sends to the board. The only type is
// "move", which moves the shape at Index so its center lands on (X, Y).
type Command struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
}

// WireShape is the feed encoding of a state.Shape.
type WireShape struct {
	ID          string        `json:"id"`
	Kind        string        `json:"kind"`
	Start       *state.Point  `json:"start,omitempty"`
	End         *state.Point  `json:"end,omitempty"`
	Points      []state.Point `json:"points,omitempty"`
	Color       string        `json:"color"`
	StrokeWidth int           `json:"stroke_width"`
	Scale       float64       `json:"scale"`
	Rotation    int           `json:"rotation"`
}

func colorString(c color.NRGBA) string {
	if name := state.ColorName(c); name != "" {
		return name
	}
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func toWire(s state.Shape) WireShape {
	w := WireShape{
		ID:          s.ID,
		Kind:        s.Kind.String(),
		Color:       colorString(s.Color),
		StrokeWidth: s.StrokeWidth,
		Scale:       s.Scale,
		Rotation:    s.Rotation,
	}
	if s.Kind == state.KindFreehand {
		w.Points = s.Points
	} else {
		start, end := s.Start, s.End
		w.Start, w.End = &start, &end
	}
	return w
}

// RepaintEvent snapshots shapes at revision.
func RepaintEvent(revision uint64, shapes []state.Shape) Event {
	ev := Event{Type: "repaint", Revision: revision, Shapes: make([]WireShape, 0, len(shapes))}
	for _, s := range shapes {
		ev.Shapes = append(ev.Shapes, toWire(s))
	}
	return ev
}

// CenterEvent reports the selected shape's center, or none.
func CenterEvent(center state.Point, ok bool) Event {
	if !ok {
		return Event{Type: "center", None: true}
	}
	x, y := center.X, center.Y
	return Event{Type: "center", X: &x, Y: &y}
}

// ProgressEvent reports the executor cursor.
func ProgressEvent(c script.Cursor) Event {
	cur, total := c.Current, c.Total
	return Event{Type: "progress", Current: &cur, Total: &total}
}

// Hub pushes board events to every connected websocket viewer. It is a
// state.Listener; register it with Store.AddListener.
type Hub struct {
	store    *state.Store
	log      *zap.Logger
	upgrader websocket.Upgrader

	connections map[*websocket.Conn]bool
	mu          sync.Mutex
}

// NewHub creates a hub that snapshots store on every repaint.
func NewHub(store *state.Store, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		store: store,
		log:   log.Named("feed"),
		upgrader: websocket.Upgrader{
			// Viewers may be served from anywhere on the LAN.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		connections: make(map[*websocket.Conn]bool),
	}
}

// join sends the current document and selection to conn and registers it.
// Holding mu keeps broadcasts from interleaving with the snapshot.
func (h *Hub) join(conn *websocket.Conn) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := []Event{RepaintEvent(h.store.Revision(), h.store.Shapes())}
	snapshot = append(snapshot, CenterEvent(h.store.SelectedCenter()))
	for _, ev := range snapshot {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(ev); err != nil {
			return err
		}
	}
	h.connections[conn] = true
	h.log.Info("viewer connected", zap.String("remote", conn.RemoteAddr().String()))
	return nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[conn] {
		return
	}
	delete(h.connections, conn)
	conn.Close()
	h.log.Info("viewer disconnected", zap.String("remote", conn.RemoteAddr().String()))
}

// Count returns the number of connected viewers.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.connections)
}

// Broadcast sends ev to all viewers, dropping any that fail.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Warn("send failed",
				zap.String("remote", conn.RemoteAddr().String()),
				zap.Error(err))
			delete(h.connections, conn)
			conn.Close()
		}
	}
}

func (h *Hub) ShapesChanged(revision uint64) {
	h.Broadcast(RepaintEvent(revision, h.store.Shapes()))
}

func (h *Hub) CenterChanged(center state.Point, ok bool) {
	h.Broadcast(CenterEvent(center, ok))
}

// Progress forwards an executor cursor to viewers.
func (h *Hub) Progress(c script.Cursor) {
	h.Broadcast(ProgressEvent(c))
}

// ServeHTTP upgrades the request and keeps the viewer until it disconnects.
// A new viewer first receives the current document and selection.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	if err := h.join(conn); err != nil {
		conn.Close()
		return
	}
	defer h.remove(conn)

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				h.reply(conn, Event{Type: "error", Message: "malformed command"})
				continue
			}
			h.log.Debug("viewer read ended", zap.Error(err))
			return
		}
		if err := h.handle(cmd); err != nil {
			h.log.Warn("command rejected", zap.String("type", cmd.Type), zap.Error(err))
			h.reply(conn, Event{Type: "error", Message: err.Error()})
		}
	}
}

// handle applies cmd to the store. The resulting repaint reaches every
// viewer, the sender included, through the store listener.
func (h *Hub) handle(cmd Command) error {
	switch cmd.Type {
	case "move":
		if !h.store.MoveTo(cmd.Index, state.Point{X: cmd.X, Y: cmd.Y}) {
			return fmt.Errorf("move: no shape at index %d", cmd.Index)
		}
		h.log.Debug("shape moved",
			zap.Int("index", cmd.Index),
			zap.Int("x", cmd.X),
			zap.Int("y", cmd.Y))
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

// reply sends ev to conn alone. Holding mu serializes it with broadcasts.
func (h *Hub) reply(conn *websocket.Conn, ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.connections[conn] {
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(ev); err != nil {
		h.log.Warn("reply failed", zap.Error(err))
	}
}

// ListenAndServe serves the feed at /feed on port until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("feed listen on port %d: %w", port, err)
	}
	return h.Serve(ctx, ln)
}

// Serve serves the feed on ln until ctx is done.
func (h *Hub) Serve(ctx context.Context, ln net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/feed", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		h.closeAll()
	}()

	h.log.Info("feed listening", zap.String("addr", ln.Addr().String()))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.connections {
		conn.Close()
		delete(h.connections, conn)
	}
}
