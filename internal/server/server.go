// Package server exposes the track listing, the music files behind it and a
// websocket relay of live energy metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
	"github.com/tejashwikalptaru/tunescope/internal/ports"
	"github.com/tejashwikalptaru/tunescope/internal/service"
)

// ShutdownTimeout bounds graceful shutdown once the run context is done.
const ShutdownTimeout = 5 * time.Second

// Library lists playable tracks and maps their URLs back to files.
type Library interface {
	List() []domain.TrackEntry
	ResolveURL(u string) (string, error)
}

// Server serves the HTTP surface of the player.
type Server struct {
	// Dependencies (injected)
	logger  *slog.Logger
	library Library
	bus     ports.EventBus

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	latest  *domain.EnergySnapshot
	subs    []domain.SubscriptionID
	closed  bool
}

// NewServer creates a server and starts relaying bus events to websocket
// clients. Call Close to stop relaying and disconnect clients.
func NewServer(logger *slog.Logger, library Library, bus ports.EventBus) *Server {
	s := &Server{
		logger:  logger.With(slog.String("component", "server")),
		library: library,
		bus:     bus,
		clients: make(map[*client]struct{}),
	}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}

	s.subs = []domain.SubscriptionID{
		bus.Subscribe(domain.EventEnergyUpdated, s.onEnergyUpdated),
		bus.Subscribe(domain.EventLibraryChanged, s.onLibraryChanged),
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tracks", s.handleTracks)
	mux.HandleFunc("GET "+service.StaticPrefix, s.handleFile)
	mux.HandleFunc("GET "+service.FSPrefix, s.handleFile)
	mux.HandleFunc("GET /ws/energy", s.handleEnergySocket)
	return mux
}

// Run listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		// Hijacked websocket connections are not tracked by Shutdown.
		s.disconnectClients()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-serverErr:
		if err != nil {
			return domain.NewServiceError("Server", "Run", "listen failed on "+addr, err)
		}
		return nil
	}
}

// Close stops relaying events and disconnects every websocket client.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	s.disconnectClients()
	return nil
}

func (s *Server) handleTracks(w http.ResponseWriter, r *http.Request) {
	tracks := s.library.List()
	if tracks == nil {
		tracks = []domain.TrackEntry{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tracks); err != nil {
		s.logger.Error("failed to write track list", slog.Any("error", err))
	}
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	p, err := s.library.ResolveURL(r.URL.EscapedPath())
	if err != nil {
		s.logger.Debug("music file not found", slog.String("url", r.URL.Path), slog.Any("error", err))
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, p)
}
