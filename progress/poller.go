package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/datproject/dat/internal/logging"
	"github.com/datproject/dat/internal/metrics"
)

// DefaultInterval is the poll period used when none is configured.
const DefaultInterval = 200 * time.Millisecond

// Poller drives sessions from a StatusSource on a fixed interval and writes
// their frames to a Terminal. Ticks for one session are handled in order,
// one at a time.
type Poller struct {
	source   StatusSource
	term     *Terminal
	interval time.Duration
	sessions *Registry

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

// NewPoller creates a poller. A non-positive interval means DefaultInterval.
func NewPoller(source StatusSource, term *Terminal, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Poller{
		source:   source,
		term:     term,
		interval: interval,
		sessions: NewRegistry(),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Sessions returns the registry of sessions being polled.
func (p *Poller) Sessions() *Registry {
	return p.sessions
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Watch polls the download flow for s until a frame reports completion,
// which returns nil. A failed status query ends the watch with that error;
// there is no retry. Cancelling ctx or calling Stop returns the context
// error.
func (p *Poller) Watch(ctx context.Context, s *Session) error {
	ctx, done := p.track(ctx, s)
	defer done()

	l := logging.Sub("poller")
	l.Info("watch started", "resource", s.ID(), "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		snap, err := p.poll(ctx, s)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.Error("status query failed", "resource", s.ID(), "err", err)
			return err
		}
		f := s.Step(snap)
		if err := p.write(f); err != nil {
			return err
		}
		if f.Complete {
			l.Info("watch complete", "resource", s.ID())
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WatchScan polls the link flow for s while create runs. When create
// returns a link, the final scan frame is rendered and the link returned.
// An error from create or from the status query ends the watch.
func (p *Poller) WatchScan(ctx context.Context, s *Session, create func(context.Context) (string, error)) (string, error) {
	ctx, done := p.track(ctx, s)
	defer done()

	l := logging.Sub("poller")
	l.Info("scan started", "resource", s.ID(), "interval", p.interval)

	type result struct {
		link string
		err  error
	}
	created := make(chan result, 1)
	go func() {
		link, err := create(ctx)
		created <- result{link, err}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case r := <-created:
			if r.err != nil {
				return "", fmt.Errorf("create link for %s: %w", s.ID(), r.err)
			}
			snap, err := p.poll(ctx, s)
			if err != nil {
				return "", err
			}
			if err := p.write(s.Finish(snap)); err != nil {
				return "", err
			}
			l.Info("scan complete", "resource", s.ID(), "link", r.link)
			return r.link, nil
		case <-ticker.C:
			snap, err := p.poll(ctx, s)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				return "", err
			}
			if err := p.write(s.Scan(snap)); err != nil {
				return "", err
			}
		}
	}
}

// Stop cancels every watch. Calling it again is a no-op.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		logging.Sub("poller").Info("stopping", "sessions", p.sessions.Len())
		p.cancel()
		p.sessions.CancelAll()
	})
}

// track registers s and returns a context that ends when the caller's
// context ends, when Stop is called, or when the returned func runs.
func (p *Poller) track(ctx context.Context, s *Session) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	unlink := context.AfterFunc(p.ctx, cancel)
	p.sessions.Add(s, cancel)
	return ctx, func() {
		unlink()
		p.sessions.Remove(s)
		cancel()
	}
}

func (p *Poller) poll(ctx context.Context, s *Session) (Snapshot, error) {
	status, err := p.source.Status(ctx)
	metrics.RecordPoll(err)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query status for %s: %w", s.ID(), err)
	}
	return status[s.ID()], nil
}

func (p *Poller) write(f Frame) error {
	metrics.RecordFrame(f.Stage.String())
	if err := p.term.Write(f); err != nil {
		return fmt.Errorf("write progress: %w", err)
	}
	return nil
}
