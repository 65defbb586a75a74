package progress

import (
	"io"
	"slices"
	"strings"
	"sync"
)

const (
	cursorUp  = "\033[1A"
	clearLine = "\033[2K"
)

// Terminal applies frames to an output stream. Committed lines are written
// once; the live block is redrawn in place on a TTY. A non-TTY stream gets
// the live block only when it changes, so piped output is not flooded.
//
// Terminal is the only resource shared between sessions and serializes
// every write.
type Terminal struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool

	live []string
}

// NewTerminal creates a Terminal writing to w. tty enables in-place redraw.
func NewTerminal(w io.Writer, tty bool) *Terminal {
	return &Terminal{w: w, tty: tty}
}

// Write applies f. On a TTY the previous live block is cleared first and
// committed lines are printed above the new one.
func (t *Terminal) Write(f Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.tty && len(f.Lines) == 0 && slices.Equal(f.Live, t.live) {
		return nil
	}

	var b strings.Builder
	if t.tty {
		b.WriteString(t.clearLive())
	}
	for _, l := range f.Lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	if t.tty || !slices.Equal(f.Live, t.live) {
		for _, l := range f.Live {
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}
	t.live = slices.Clone(f.Live)

	if b.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(t.w, b.String())
	return err
}

// Println commits a single line outside any session frame.
func (t *Terminal) Println(line string) error {
	return t.Write(Frame{Lines: []string{line}, Live: t.currentLive()})
}

func (t *Terminal) currentLive() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.live)
}

// clearLive erases the live block last drawn. Caller holds mu.
func (t *Terminal) clearLive() string {
	if len(t.live) == 0 {
		return ""
	}
	var b strings.Builder
	for range t.live {
		b.WriteString(cursorUp)
		b.WriteString(clearLine)
	}
	b.WriteByte('\r')
	return b.String()
}
