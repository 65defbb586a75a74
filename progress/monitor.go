package progress

import (
	"context"
	"fmt"

	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/internal/metrics"
)

// Monitor renders the connection summary of a swarm: once when it starts
// and again on every peer event.
type Monitor struct {
	swarm Swarm
	term  *Terminal
	opts  Options
}

// NewMonitor creates a monitor for swarm writing to term.
func NewMonitor(swarm Swarm, term *Terminal, opts Options) *Monitor {
	if opts.Decorator == nil {
		opts.Decorator = NewDecorator(false)
	}
	return &Monitor{swarm: swarm, term: term, opts: opts}
}

// Line returns the current connection summary.
func (m *Monitor) Line() string {
	return m.opts.Decorator.connectionLine(m.swarm.Connections(), m.swarm.Connecting())
}

// Run subscribes to the swarm and renders until ctx is cancelled, which
// returns the context error, or the event stream closes, which returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	events, unsubscribe := m.swarm.Subscribe()
	defer unsubscribe()

	l := logging.Sub("monitor")
	if err := m.render(); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				l.Info("swarm closed")
				return nil
			}
			metrics.RecordPeerEvent(string(ev.Kind), m.swarm.Connections())
			l.Debug("peer event", "type", string(ev.Kind), "peer", ev.Peer,
				"connections", m.swarm.Connections(), "connecting", m.swarm.Connecting())
			if err := m.render(); err != nil {
				return err
			}
		}
	}
}

func (m *Monitor) render() error {
	var f Frame
	if !m.opts.Quiet {
		f.Live = []string{m.Line()}
	}
	if err := m.term.Write(f); err != nil {
		return fmt.Errorf("write connection status: %w", err)
	}
	return nil
}
