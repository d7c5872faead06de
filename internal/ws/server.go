// Package ws exposes the engine's status to external observers: a JSON
// health endpoint and a websocket stream of zone-color frames. Readers are
// fully decoupled from the sync loop; they only ever see copied snapshots.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/glowsync/internal/engine"
)

// StatusFunc returns the latest snapshot; nil colors mean no session yet.
type StatusFunc func() engine.Status

// Server broadcasts status frames to connected websocket clients.
type Server struct {
	status   StatusFunc
	log      zerolog.Logger
	interval time.Duration
	start    time.Time

	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

func NewServer(status StatusFunc, log zerolog.Logger) *Server {
	return &Server{
		status:   status,
		log:      log,
		interval: 100 * time.Millisecond,
		start:    time.Now(),
		clients:  map[*websocket.Conn]bool{},
	}
}

// Routes registers the handlers on mux.
func (s *Server) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", s.handleStatusWS)
	mux.HandleFunc("/health", s.handleHealth)
}

func (s *Server) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.status()
	resp := map[string]any{
		"frame_count": st.FrameCount,
		"zones":       len(st.Colors),
		"uptime_s":    time.Since(s.start).Seconds(),
	}
	if !st.LastUpdate.IsZero() {
		resp["last_update"] = st.LastUpdate.Format(time.RFC3339Nano)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Run broadcasts frames at the configured interval until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.broadcast()
		}
	}
}

func (s *Server) broadcast() {
	st := s.status()
	if st.Colors == nil {
		return
	}
	rgb := make([]byte, len(st.Colors)*3)
	for i, c := range st.Colors {
		rgb[i*3+0] = c.R
		rgb[i*3+1] = c.G
		rgb[i*3+2] = c.B
	}
	type frame struct {
		T          int64  `json:"t"`
		FrameCount uint64 `json:"frame_count"`
		RGB        []byte `json:"rgb"`
	}
	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameCount: st.FrameCount, RGB: rgb})

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.log.Debug().Err(err).Msg("write status frame")
		}
	}
}
