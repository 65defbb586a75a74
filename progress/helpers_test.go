package progress

import (
	"bytes"
	"context"
	"sync"

	"github.com/samber/lo"
)

const testLink = "6161616161616161616161616161616161616161616161616161616161616161"

func file(name string, read, total int64) FileEntry {
	return FileEntry{Name: name, Stats: FileStats{BytesRead: read, BytesTotal: total}}
}

func totals(files, dirs, bytes int64) *Totals {
	return &Totals{FilesTotal: files, Directories: dirs, BytesTotal: bytes}
}

func counters(bytesRead, filesRead int64) *Counters {
	return &Counters{BytesRead: bytesRead, FilesRead: filesRead}
}

var yes = lo.ToPtr(true)
var no = lo.ToPtr(false)

// syncBuffer is a bytes.Buffer safe for a writer goroutine and a reading test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// scriptedSource returns its statuses in order and repeats the last one.
type scriptedSource struct {
	mu       sync.Mutex
	statuses []Status
	err      error
	calls    int
}

func (s *scriptedSource) Status(ctx context.Context) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.statuses) == 0 {
		return Status{}, nil
	}
	st := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return st, nil
}

func (s *scriptedSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fakeSwarm is a Swarm whose counts are changed by the test.
type fakeSwarm struct {
	mu          sync.Mutex
	connections int
	connecting  int
	events      chan PeerEvent
}

func newFakeSwarm(connections, connecting int) *fakeSwarm {
	return &fakeSwarm{connections: connections, connecting: connecting, events: make(chan PeerEvent, 8)}
}

func (s *fakeSwarm) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

func (s *fakeSwarm) Connecting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connecting
}

func (s *fakeSwarm) Subscribe() (<-chan PeerEvent, func()) {
	return s.events, func() {}
}

func (s *fakeSwarm) emit(kind PeerEventKind, connections, connecting int) {
	s.mu.Lock()
	s.connections = connections
	s.connecting = connecting
	s.mu.Unlock()
	s.events <- PeerEvent{Kind: kind, Peer: "peer-1"}
}
