package progress

import "context"

// StatusSource is the engine's status query. It must be safe to call
// repeatedly; the poller calls it on every tick.
type StatusSource interface {
	Status(ctx context.Context) (Status, error)
}

// PeerEventKind names a change in a swarm's peer set.
type PeerEventKind string

const (
	// EventConnection is sent when a peer becomes active.
	EventConnection PeerEventKind = "connection"
	// EventPeer is sent when a peer is discovered and a connection attempt starts.
	EventPeer PeerEventKind = "peer"
	// EventDrop is sent when a peer disconnects.
	EventDrop PeerEventKind = "drop"
)

// PeerEvent is one swarm change. Peer identifies the remote side and is
// informational only.
type PeerEvent struct {
	Kind PeerEventKind `json:"type"`
	Peer string        `json:"peer,omitempty"`
}

// Swarm is the peer-connection object of one shared resource.
// Connections and Connecting reflect every event already delivered.
type Swarm interface {
	Connections() int
	Connecting() int
	// Subscribe returns a channel of events and a func that ends the
	// subscription. The channel is closed when the swarm goes away.
	Subscribe() (<-chan PeerEvent, func())
}
