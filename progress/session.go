package progress

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/datproject/dat/internal/logging"
)

// Flow is the kind of operation a session reports on.
type Flow int

const (
	// FlowDownload joins a remote link and downloads it.
	FlowDownload Flow = iota
	// FlowLink scans a local directory and publishes it.
	FlowLink
)

func (f Flow) String() string {
	if f == FlowLink {
		return "link"
	}
	return "download"
}

// Options controls how a session renders.
type Options struct {
	// Quiet drops decorative output. Only the bare link and the final
	// completion notice are printed.
	Quiet bool
	// Decorator styles text. Nil means no decoration.
	Decorator *Decorator
}

// Frame is the output of one render step. Lines are committed: printed once
// and never redrawn. Live is the transient block that the next frame
// replaces.
type Frame struct {
	Lines    []string
	Live     []string
	Stage    Stage
	Complete bool
}

// Empty reports whether the frame has nothing to print.
func (f Frame) Empty() bool {
	return len(f.Lines) == 0 && len(f.Live) == 0
}

// String renders the frame as plain text: committed lines, then the live
// block.
func (f Frame) String() string {
	var b strings.Builder
	for _, l := range f.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	for _, l := range f.Live {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// frameBuilder routes decorated and quiet output into a Frame.
type frameBuilder struct {
	quiet bool
	f     Frame
}

func (b *frameBuilder) commit(lines ...string) {
	if !b.quiet {
		b.f.Lines = append(b.f.Lines, lines...)
	}
}

func (b *frameBuilder) live(lines ...string) {
	if !b.quiet {
		b.f.Live = append(b.f.Live, lines...)
	}
}

// plain commits a line that is printed only in quiet mode.
func (b *frameBuilder) plain(line string) {
	if b.quiet {
		b.f.Lines = append(b.f.Lines, line)
	}
}

// Session is the render state of one tracked resource. It owns the merged
// snapshot and the one-shot flags, and serializes every render step so the
// flags hold under concurrent callers.
type Session struct {
	mu sync.Mutex

	id   string
	link string
	flow Flow
	opts Options
	log  *slog.Logger

	stage  Stage
	merged Snapshot

	printedSharingLink      bool
	printedDownloadComplete bool

	// drained holds the files already reported as done. The engine may
	// list them again at the head of later queues.
	drained map[string]struct{}
}

// NewSession creates a session for resource id. For the download flow id is
// the link; for the link flow it is the directory and the link is supplied
// later through Share.
func NewSession(id string, flow Flow, opts Options) *Session {
	if opts.Decorator == nil {
		opts.Decorator = NewDecorator(false)
	}
	s := &Session{
		id:      id,
		flow:    flow,
		opts:    opts,
		drained: make(map[string]struct{}),
		log:     logging.Sub("session").With("resource", id, "flow", flow.String(), "session", uuid.NewString()),
	}
	if flow == FlowDownload {
		s.link = id
	} else {
		s.stage = StageScanning
	}
	return s
}

// ID returns the resource identifier.
func (s *Session) ID() string { return s.id }

// Flow returns the kind of operation.
func (s *Session) Flow() Flow { return s.flow }

// Stage returns the current lifecycle stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// Snapshot returns a copy of the merged snapshot.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{}.Merge(s.merged)
}

// Step folds one download-flow snapshot into the session and renders it.
// The phase line follows DetectPhase; the sharing and completion
// announcements are checked on every call and print at most once.
func (s *Session) Step(next Snapshot) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merged = s.merged.Merge(next)
	snap := s.merged
	d := s.opts.Decorator
	b := &frameBuilder{quiet: s.opts.Quiet}

	// The engine keeps reporting gettingMetadata after metadata arrives;
	// the session's own view of it ends with the transition print.
	getting := snap.IsGettingMetadata() && s.stage < StageDownloading
	if getting {
		s.setStage(StageGettingMetadata)
	}

	phase := DetectPhase(snap, getting)
	switch phase {
	case PhaseConnecting:
		b.live(d.Bold("Connecting..."))
	case PhaseMetadataReady:
		b.commit(d.scanSummary(snap.Totals(), "Downloading Data"), "")
		s.setStage(StageDownloading)
	case PhaseGettingMetadata:
		b.live(d.scanSummary(snap.Totals(), d.BoldBlue("Getting Metadata")))
	case PhaseDownloading:
		s.setStage(StageDownloading)
		committed, live := renderFileProgress(d, snap, "Downloading Data", false, s.drained)
		b.commit(committed...)
		b.live(live...)
	}
	if logging.Enabled(slog.LevelDebug) {
		s.log.Debug("step", "phase", phase.String(), "stage", s.stage.String())
	}

	if snap.IsSharingLink() {
		s.announceSharing(b)
	}
	s.announceCompletion(b)

	b.f.Stage = s.stage
	return b.f
}

// Share announces link once. The link flow calls it after the engine has
// created the link; later calls print nothing.
func (s *Session) Share(link string) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.link == "" {
		s.link = link
	}
	b := &frameBuilder{quiet: s.opts.Quiet}
	s.announceSharing(b)
	b.f.Stage = s.stage
	return b.f
}

func (s *Session) announceSharing(b *frameBuilder) {
	if s.printedSharingLink {
		return
	}
	b.commit(s.opts.Decorator.sharingLine(s.link), "")
	b.plain(datURL(s.link))
	s.printedSharingLink = true
	s.log.Info("sharing link announced")
}

func (s *Session) announceCompletion(b *frameBuilder) {
	snap := s.merged
	if !snap.IsDownloadComplete() || s.printedDownloadComplete {
		return
	}
	d := s.opts.Decorator

	committed, _ := renderFileProgress(d, snap, "", true, s.drained)
	b.commit(committed...)
	b.commit(
		d.BoldGreen("[Done] ")+d.Bold("Downloaded "+HumanizeBytes(snap.Counters().BytesRead)+" "),
		d.sharingLine(s.link),
	)
	b.plain("Downloaded successfully.")
	b.f.Live = nil
	b.f.Complete = true

	s.printedDownloadComplete = true
	s.setStage(StageComplete)
	s.log.Info("download complete", "bytes", snap.Counters().BytesRead)
}

// Scan folds one link-flow snapshot into the session and renders the
// directory scan. It renders on every call; a snapshot without totals
// renders nothing.
func (s *Session) Scan(next Snapshot) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merged = s.merged.Merge(next)
	b := &frameBuilder{quiet: s.opts.Quiet}
	if s.merged.Total == nil {
		b.f.Stage = s.stage
		return b.f
	}
	d := s.opts.Decorator
	b.live(d.scanSummary(s.merged.Totals(), d.BoldBlue("Calculating Size")))
	committed, live := renderFileProgress(d, s.merged, "Adding Files to Dat", false, s.drained)
	b.commit(committed...)
	b.live(live...)
	b.f.Stage = s.stage
	return b.f
}

// Finish renders the final scan frame once the engine has created the link.
// Everything is committed and the frame is complete.
func (s *Session) Finish(next Snapshot) Frame {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.merged = s.merged.Merge(next)
	d := s.opts.Decorator
	b := &frameBuilder{quiet: s.opts.Quiet}
	b.commit(d.scanSummary(s.merged.Totals(), "Creating Dat Link"), "")
	committed, live := renderFileProgress(d, s.merged, "Files Read to Dat", false, s.drained)
	b.commit(committed...)
	b.commit(live...)
	b.f.Complete = true

	s.setStage(StageComplete)
	b.f.Stage = s.stage
	return b.f
}

// setStage must be called with mu held.
func (s *Session) setStage(next Stage) {
	prev := s.stage
	s.stage = s.stage.advance(next)
	if s.stage != prev {
		s.log.Debug("stage changed", "from", prev.String(), "to", s.stage.String())
	}
}
