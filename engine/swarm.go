package engine

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/progress"
)

// Swarm mirrors the peer swarm of one link from the engine's websocket.
// Counts are updated before each event is published, so a subscriber that
// reads them on an event sees the state after it.
type Swarm struct {
	link string
	conn *websocket.Conn
	bus  *eventBus

	mu          sync.RWMutex
	connections int
	connecting  int

	done      chan struct{}
	closeOnce sync.Once
}

// newSwarm reads the initial state frame and starts the read loop.
func newSwarm(link string, conn *websocket.Conn) (*Swarm, error) {
	var first SwarmMessage
	if err := conn.ReadJSON(&first); err != nil {
		return nil, fmt.Errorf("read swarm state: %w", err)
	}
	if first.Type != MessageState {
		return nil, fmt.Errorf("read swarm state: got %q frame first", first.Type)
	}

	s := &Swarm{
		link:        link,
		conn:        conn,
		bus:         newEventBus(),
		connections: first.Connections,
		connecting:  first.Connecting,
		done:        make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// Link returns the link the swarm belongs to.
func (s *Swarm) Link() string { return s.link }

// Connections returns the number of active peers.
func (s *Swarm) Connections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections
}

// Connecting returns the number of pending connection attempts.
func (s *Swarm) Connecting() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connecting
}

// Subscribe returns a channel of peer events and a func ending the
// subscription. The channel is closed when the swarm connection ends.
func (s *Swarm) Subscribe() (<-chan progress.PeerEvent, func()) {
	ch := s.bus.subscribe()
	return ch, func() { s.bus.unsubscribe(ch) }
}

// Done is closed once the swarm connection has ended.
func (s *Swarm) Done() <-chan struct{} {
	return s.done
}

// Close ends the swarm connection. Calling it again is a no-op.
func (s *Swarm) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.conn.Close()
	})
	return err
}

func (s *Swarm) readLoop() {
	l := logging.Sub("swarm").With("link", s.link)
	defer close(s.done)
	defer s.bus.close()

	for {
		var msg SwarmMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.Info("swarm closed by engine")
			} else {
				l.Debug("swarm read ended", "err", err)
			}
			s.Close() //nolint:errcheck
			return
		}

		s.mu.Lock()
		s.connections = msg.Connections
		s.connecting = msg.Connecting
		s.mu.Unlock()

		switch kind := progress.PeerEventKind(msg.Type); kind {
		case progress.EventConnection, progress.EventPeer, progress.EventDrop:
			s.bus.publish(progress.PeerEvent{Kind: kind, Peer: msg.Peer})
		case MessageState:
		default:
			l.Warn("unknown swarm message", "type", msg.Type)
		}
	}
}
