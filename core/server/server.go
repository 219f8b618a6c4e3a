// Package server exposes the latest dev bundle over HTTP and pushes reload
// events to connected clients.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tristendillon/widgetforge/core/bundle"
	"github.com/tristendillon/widgetforge/core/logger"
)

const LoaderPath = "/api/loader"

var reloadMessage = []byte(`{"type":"reload"}`)

type Server struct {
	addr     string
	snapshot atomic.Pointer[bundle.DevBundle]
	hub      *hub
	upgrader websocket.Upgrader
}

func NewServer(addr string) *Server {
	s := &Server{
		addr: addr,
		hub:  newHub(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	s.snapshot.Store(bundle.Empty())
	return s
}

// Publish replaces the served snapshot and notifies websocket clients. The
// bundle must not be modified afterwards.
func (s *Server) Publish(b *bundle.DevBundle) {
	if b == nil {
		b = bundle.Empty()
	}
	s.snapshot.Store(b)
	s.hub.Broadcast(reloadMessage)
	logger.Debug("Published bundle: %s", b)
}

func (s *Server) Snapshot() *bundle.DevBundle {
	return s.snapshot.Load()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(LoaderPath, s.handleLoader)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, "ok")
	})
	return mux
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.hub.Close()
	}()

	logger.Info("Serving dev bundle on http://%s%s", ln.Addr(), LoaderPath)
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleLoader(w http.ResponseWriter, r *http.Request) {
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "*")

	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodHead:
	default:
		h.Set("Allow", "GET, OPTIONS")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := json.Marshal(s.snapshot.Load())
	if err != nil {
		logger.Error("Failed to encode bundle: %v", err)
		http.Error(w, "failed to encode bundle", http.StatusInternalServerError)
		return
	}
	h.Set("Content-Type", "application/json")
	h.Set("Cache-Control", "no-store")
	_, _ = w.Write(payload)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade websocket: %v", err)
		return
	}
	c := newClient(conn, s.hub.pongWait)
	s.hub.Register(c)
	go c.writeLoop()
	c.readLoop(func() {
		s.hub.Unregister(c)
	})
}
