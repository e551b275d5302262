// Package dashboard provides a WebSocket event feed for board UIs.
//
// The feed broadcasts confirmed task moves and sync outcomes to connected
// clients so an open board view can refresh without polling. Connecting
// clients receive a snapshot of per-column counts first, then live events.
package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/Inna0915/jiraflow/internal/board"
	"github.com/Inna0915/jiraflow/internal/cache"
	"github.com/Inna0915/jiraflow/internal/syncer"
)

// EventType labels a feed message.
type EventType string

const (
	// EventSnapshot carries per-column counts, sent on connect.
	EventSnapshot EventType = "snapshot"
	// EventTaskMoved announces a confirmed (not optimistic) move.
	EventTaskMoved EventType = "task_moved"
	// EventSyncComplete announces a finished full or incremental sync.
	EventSyncComplete EventType = "sync_complete"
	// EventSyncError announces a failed sync and the stage that failed.
	EventSyncError EventType = "sync_error"
)

// Event is one feed message.
type Event struct {
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// TaskMovedData is the payload of EventTaskMoved.
type TaskMovedData struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	From     string `json:"from"`
	To       string `json:"to"`
	Swimlane string `json:"swimlane"`
}

// SyncCompleteData is the payload of EventSyncComplete.
type SyncCompleteData struct {
	Mode    string `json:"mode"`
	Total   int    `json:"total"`
	Changed int    `json:"changed"`
	Pruned  int    `json:"pruned"`
	Sprint  string `json:"sprint,omitempty"`
}

// SyncErrorData is the payload of EventSyncError.
type SyncErrorData struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// SnapshotData is the payload of EventSnapshot.
type SnapshotData struct {
	Columns map[string]int `json:"columns"`
	Total   int            `json:"total"`
}

// Server broadcasts board events over WebSocket.
type Server struct {
	addr  string
	cache *cache.Cache

	listener net.Listener
	server   *http.Server

	clients   map[*websocket.Conn]bool
	clientsMu sync.RWMutex

	broadcast chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *log.Logger
}

// NewServer creates a feed server bound to addr (e.g. ":8377"). The cache
// is read for the connect-time snapshot.
func NewServer(addr string, c *cache.Cache, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:      addr,
		cache:     c,
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 100),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start begins listening and serving the feed.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	s.wg.Add(2)
	go s.broadcastLoop()
	go func() {
		defer s.wg.Done()
		s.logger.Printf("Event feed listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Feed server error: %v", err)
		}
	}()

	return nil
}

// Stop shuts the feed down, closing every client connection.
func (s *Server) Stop() error {
	s.cancel()

	s.clientsMu.Lock()
	for conn := range s.clients {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(s.clients, conn)
	}
	s.clientsMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("feed shutdown error: %w", err)
	}

	s.wg.Wait()
	return nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// ClientCount returns the number of connected clients.
func (s *Server) ClientCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// TaskMoved implements the reconcile events hook.
func (s *Server) TaskMoved(task *board.Task, from, to board.ColumnID) {
	lane := board.ClassifyTask(task, time.Now()).Lane()
	s.publish(EventTaskMoved, TaskMovedData{
		Key:      task.Key,
		Title:    task.Title,
		From:     string(from),
		To:       string(to),
		Swimlane: string(lane),
	})
}

// SyncCompleted implements the syncer events hook.
func (s *Server) SyncCompleted(stats *syncer.Stats) {
	s.publish(EventSyncComplete, SyncCompleteData{
		Mode:    stats.Mode,
		Total:   stats.Total,
		Changed: stats.Changed,
		Pruned:  stats.Pruned,
		Sprint:  stats.Sprint,
	})
}

// SyncFailed implements the syncer events hook.
func (s *Server) SyncFailed(stage string, err error) {
	s.publish(EventSyncError, SyncErrorData{Stage: stage, Error: err.Error()})
}

// publish queues an event without blocking the caller; a full queue drops
// the event with a warning.
func (s *Server) publish(typ EventType, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Printf("Failed to marshal %s event: %v", typ, err)
		return
	}
	ev := Event{Type: typ, Timestamp: time.Now(), Data: payload}

	select {
	case s.broadcast <- ev:
	case <-s.ctx.Done():
	default:
		s.logger.Printf("Warning: event queue full, dropping %s", typ)
	}
}

func (s *Server) broadcastLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			return
		case ev := <-s.broadcast:
			data, err := json.Marshal(ev)
			if err != nil {
				s.logger.Printf("Failed to marshal event: %v", err)
				continue
			}

			s.clientsMu.RLock()
			conns := make([]*websocket.Conn, 0, len(s.clients))
			for conn := range s.clients {
				conns = append(conns, conn)
			}
			s.clientsMu.RUnlock()

			for _, conn := range conns {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				err := conn.Write(ctx, websocket.MessageText, data)
				cancel()
				if err != nil {
					s.removeClient(conn)
				}
			}
		}
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	s.logger.Printf("Feed client connected (total: %d)", total)

	// Per-column counts give a new client something to render before the
	// first live event arrives.
	s.sendSnapshot(conn)

	go s.readLoop(conn)
}

func (s *Server) sendSnapshot(conn *websocket.Conn) {
	counts := make(map[string]int, len(board.Columns))
	total := 0
	for col, tasks := range s.cache.ByColumn() {
		counts[string(col)] = len(tasks)
		total += len(tasks)
	}

	payload, _ := json.Marshal(SnapshotData{Columns: counts, Total: total})
	data, _ := json.Marshal(Event{Type: EventSnapshot, Timestamp: time.Now(), Data: payload})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, data)
}

// readLoop drains client frames so pings work and disconnects are noticed.
func (s *Server) readLoop(conn *websocket.Conn) {
	defer s.removeClient(conn)
	for {
		if _, _, err := conn.Read(s.ctx); err != nil {
			return
		}
	}
}

func (s *Server) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	_, exists := s.clients[conn]
	if exists {
		delete(s.clients, conn)
	}
	total := len(s.clients)
	s.clientsMu.Unlock()

	if exists {
		_ = conn.Close(websocket.StatusNormalClosure, "")
		s.logger.Printf("Feed client disconnected (total: %d)", total)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"clients": s.ClientCount(),
	})
}
