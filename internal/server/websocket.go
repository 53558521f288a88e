package server

import (
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tejashwikalptaru/tunescope/internal/domain"
)

const (
	// clientBuffer is how many messages a slow client may lag before drops.
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// Message is one websocket frame sent to energy stream clients.
type Message struct {
	Type   string                 `json:"type"`
	Energy *domain.EnergySnapshot `json:"energy,omitempty"`
	Dir    string                 `json:"dir,omitempty"`
	Path   string                 `json:"path,omitempty"`
}

type client struct {
	send chan Message
}

// checkOrigin allows same-origin, loopback and private network connections.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if originAllowed(origin, r.Host) {
		return true
	}
	s.logger.Warn("rejected websocket connection", slog.String("origin", origin))
	return false
}

func originAllowed(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, host) {
		return true
	}

	name := u.Hostname()
	if strings.EqualFold(name, "localhost") {
		return true
	}
	addr, err := netip.ParseAddr(name)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() || addr.IsPrivate()
}

// handleEnergySocket streams energy snapshots and library change hints.
func (s *Server) handleEnergySocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", slog.Any("error", err))
		return
	}

	c := &client{send: make(chan Message, clientBuffer)}
	if !s.addClient(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
			time.Now().Add(writeTimeout))
		_ = conn.Close()
		return
	}
	defer s.removeClient(c)

	// Reads only detect the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		_ = conn.Close()
		<-done
	}()

	for {
		select {
		case <-done:
			return
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
					time.Now().Add(writeTimeout))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				s.logger.Debug("websocket write failed", slog.Any("error", err))
				return
			}
		}
	}
}

// addClient registers c and queues the latest snapshot for it.
func (s *Server) addClient(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	if s.latest != nil {
		snap := *s.latest
		c.send <- Message{Type: "energy", Energy: &snap}
	}
	s.logger.Debug("websocket client connected", slog.Int("clients", len(s.clients)))
	return true
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		s.logger.Debug("websocket client disconnected", slog.Int("clients", len(s.clients)))
	}
}

// disconnectClients closes every client queue, which ends its handler.
func (s *Server) disconnectClients() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
}

// broadcast queues msg for every client, dropping it for clients that lag.
func (s *Server) broadcast(msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

// ClientCount returns the number of connected websocket clients.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *Server) onEnergyUpdated(e domain.Event) {
	snap := e.(domain.EnergyUpdatedEvent).Snapshot

	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()

	s.broadcast(Message{Type: "energy", Energy: &snap})
}

func (s *Server) onLibraryChanged(e domain.Event) {
	ev := e.(domain.LibraryChangedEvent)
	s.broadcast(Message{Type: "library", Dir: ev.Dir, Path: ev.Path})
}
