package engine

import (
	"sync"

	"github.com/datproject/dat/progress"
)

// eventBus fans peer events out to subscribers. A slow subscriber loses
// its oldest buffered event instead of blocking the reader, so the newest
// event is always delivered.
type eventBus struct {
	mu      sync.RWMutex
	clients map[chan progress.PeerEvent]struct{}
	closed  bool
}

func newEventBus() *eventBus {
	return &eventBus{
		clients: make(map[chan progress.PeerEvent]struct{}),
	}
}

// subscribe registers a client. After close it returns a closed channel.
func (b *eventBus) subscribe() chan progress.PeerEvent {
	ch := make(chan progress.PeerEvent, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// unsubscribe removes a client and closes its channel. It is a no-op for a
// client already removed by close.
func (b *eventBus) unsubscribe(ch chan progress.PeerEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; !ok {
		return
	}
	delete(b.clients, ch)
	close(ch)
}

func (b *eventBus) publish(ev progress.PeerEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- ev:
		default:
			// slow client, make room for the newest event
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
			}
		}
	}
}

// close ends every subscription.
func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	b.clients = nil
}

func (b *eventBus) len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}
