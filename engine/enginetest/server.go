// Package enginetest provides an in-process fake of the dat synchronization
// engine. It serves the same HTTP and websocket API as the real engine from
// scripted state.
package enginetest

import (
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/datproject/dat/engine"
	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

// Server is a fake engine. The zero value is not usable; call New.
type Server struct {
	ts       *httptest.Server
	upgrader websocket.Upgrader

	mu        sync.Mutex
	statuses  []progress.Status
	links     map[string]string
	linkGate  chan struct{}
	release   func()
	failAfter int
	polls     int
	joins     []engine.JoinRequest
	swarms    map[string]*swarm
}

type swarm struct {
	connections int
	connecting  int
	conns       map[*websocket.Conn]struct{}
}

// New starts a fake engine on a loopback port. Close it when done.
func New() *Server {
	s := &Server{
		links:     make(map[string]string),
		swarms:    make(map[string]*swarm),
		failAfter: -1,
	}
	s.ts = httptest.NewServer(s.Router())
	return s
}

// Router returns the engine API routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/link", s.handleLink).Methods(http.MethodPost)
	r.HandleFunc("/join", s.handleJoin).Methods(http.MethodPost)
	r.HandleFunc("/swarm/{link}", s.handleSwarm).Methods(http.MethodGet)
	return r
}

// Close shuts the server down, releases held links and drops every swarm
// connection.
func (s *Server) Close() {
	s.mu.Lock()
	if s.release != nil {
		s.release()
	}
	for _, sw := range s.swarms {
		for c := range sw.conns {
			c.Close()
		}
	}
	s.mu.Unlock()
	s.ts.Close()
}

// URL returns the base HTTP address.
func (s *Server) URL() string { return s.ts.URL }

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ts.Listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ts.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Config returns a client config pointing at the server.
func (s *Server) Config() engine.Config {
	return engine.Config{Host: s.Host(), Port: s.Port()}
}

// Script sets the statuses returned by successive GET /status calls. The
// last one repeats.
func (s *Server) Script(statuses ...progress.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses = statuses
}

// FailStatusAfter makes GET /status fail with 500 after n successful polls.
func (s *Server) FailStatusAfter(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAfter = n
}

// Polls returns the number of GET /status calls served.
func (s *Server) Polls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.polls
}

// SetLink makes POST /link for dir answer with link.
func (s *Server) SetLink(dir, link string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.links[dir] = link
}

// HoldLinks makes POST /link wait until the returned func is called, so a
// test can watch the scan in progress.
func (s *Server) HoldLinks() (release func()) {
	gate := make(chan struct{})
	var once sync.Once
	release = func() { once.Do(func() { close(gate) }) }
	s.mu.Lock()
	s.linkGate = gate
	s.release = release
	s.mu.Unlock()
	return release
}

// Joins returns every POST /join request received.
func (s *Server) Joins() []engine.JoinRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]engine.JoinRequest, len(s.joins))
	copy(out, s.joins)
	return out
}

// SetSwarm sets the counts of the swarm of link reported to new
// subscribers.
func (s *Server) SetSwarm(link string, connections, connecting int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sw := s.swarmLocked(link)
	sw.connections = connections
	sw.connecting = connecting
}

// Subscribers returns the number of open websocket connections for link.
func (s *Server) Subscribers(link string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sw, ok := s.swarms[link]; ok {
		return len(sw.conns)
	}
	return 0
}

// Peer applies a peer event to the swarm of link and pushes it to every
// subscriber. A peer event adds a pending connection, a connection event
// turns one into an active peer, and a drop removes an active peer.
func (s *Server) Peer(link string, kind progress.PeerEventKind, peer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sw := s.swarmLocked(link)
	switch kind {
	case progress.EventPeer:
		sw.connecting++
	case progress.EventConnection:
		if sw.connecting > 0 {
			sw.connecting--
		}
		sw.connections++
	case progress.EventDrop:
		if sw.connections > 0 {
			sw.connections--
		}
	}
	msg := engine.SwarmMessage{Type: string(kind), Connections: sw.connections, Connecting: sw.connecting, Peer: peer}
	for c := range sw.conns {
		if err := c.WriteJSON(msg); err != nil {
			c.Close()
			delete(sw.conns, c)
		}
	}
}

// swarmLocked must be called with mu held.
func (s *Server) swarmLocked(link string) *swarm {
	sw, ok := s.swarms[link]
	if !ok {
		sw = &swarm{conns: make(map[*websocket.Conn]struct{})}
		s.swarms[link] = sw
	}
	return sw
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.failAfter >= 0 && s.polls >= s.failAfter {
		s.mu.Unlock()
		http.Error(w, "engine failure", http.StatusInternalServerError)
		return
	}
	s.polls++
	st := progress.Status{}
	if len(s.statuses) > 0 {
		st = s.statuses[0]
		if len(s.statuses) > 1 {
			s.statuses = s.statuses[1:]
		}
	}
	data, err := json.Marshal(st)
	s.mu.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data) //nolint:errcheck
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	l := logging.Sub("enginetest")
	var req engine.LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	link, ok := s.links[req.Dir]
	gate := s.linkGate
	s.mu.Unlock()
	if !ok {
		http.Error(w, "no such directory", http.StatusNotFound)
		return
	}

	if gate != nil {
		select {
		case <-gate:
		case <-r.Context().Done():
			return
		}
	}

	l.Debug("link", "dir", req.Dir, "link", link)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(engine.LinkResponse{Link: link}) //nolint:errcheck
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req engine.JoinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Link == "" || req.Dir == "" {
		http.Error(w, "link and dir are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.joins = append(s.joins, req)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSwarm(w http.ResponseWriter, r *http.Request) {
	link := mux.Vars(r)["link"]
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	s.mu.Lock()
	sw := s.swarmLocked(link)
	err = conn.WriteJSON(engine.SwarmMessage{Type: engine.MessageState, Connections: sw.connections, Connecting: sw.connecting})
	if err == nil {
		sw.conns[conn] = struct{}{}
	}
	s.mu.Unlock()
	if err != nil {
		conn.Close()
		return
	}

	// Drain until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.mu.Lock()
	delete(sw.conns, conn)
	s.mu.Unlock()
	conn.Close()
}
