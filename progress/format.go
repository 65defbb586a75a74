package progress

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// Percentage returns floor(100*read/total). ok is false when total is 0,
// where the ratio is undefined and callers must render something else.
func Percentage(read, total int64) (pct int, ok bool) {
	if total == 0 {
		return 0, false
	}
	return int((100 * read) / total), true
}

// HumanizeBytes renders a byte count as a short SI string ("3.2 MB").
func HumanizeBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// Rate renders a transfer rate ("1.2 MB/s"), or "" when there is none.
func Rate(bytesPerSec int64) string {
	if bytesPerSec <= 0 {
		return ""
	}
	return HumanizeBytes(bytesPerSec) + "/s"
}

// summaryBytes is the byte part of a scan summary; an unknown total is blank.
func summaryBytes(total int64) string {
	if total == 0 {
		return ""
	}
	return HumanizeBytes(total) + " total"
}

// padPercent right-aligns a percentage in three columns.
func padPercent(pct int) string {
	return fmt.Sprintf("%3d", pct)
}

// placeholder keeps file names aligned with "[NNN%] " when no percentage
// is shown.
var placeholder = strings.Repeat(" ", len("[100%] "))

// Decorator is the text-decoration capability. A disabled Decorator
// passes text through unchanged.
type Decorator struct {
	bold          *color.Color
	boldBlue      *color.Color
	boldGreen     *color.Color
	boldDim       *color.Color
	boldGray      *color.Color
	blue          *color.Color
	dim           *color.Color
	dimGreen      *color.Color
	underlineBlue *color.Color
}

// NewDecorator creates a Decorator. When enabled is false every style is
// a plain pass-through; when true, fatih/color still honours NO_COLOR and
// non-terminal output.
func NewDecorator(enabled bool) *Decorator {
	d := &Decorator{
		bold:          color.New(color.Bold),
		boldBlue:      color.New(color.Bold, color.FgBlue),
		boldGreen:     color.New(color.Bold, color.FgGreen),
		boldDim:       color.New(color.Bold, color.Faint),
		boldGray:      color.New(color.Bold, color.FgHiBlack),
		blue:          color.New(color.FgBlue),
		dim:           color.New(color.Faint),
		dimGreen:      color.New(color.Faint, color.FgGreen),
		underlineBlue: color.New(color.Underline, color.FgBlue),
	}
	if !enabled {
		for _, c := range d.all() {
			c.DisableColor()
		}
	}
	return d
}

func (d *Decorator) all() []*color.Color {
	return []*color.Color{
		d.bold, d.boldBlue, d.boldGreen, d.boldDim, d.boldGray,
		d.blue, d.dim, d.dimGreen, d.underlineBlue,
	}
}

func (d *Decorator) Bold(s string) string { return d.bold.Sprint(s) }
func (d *Decorator) BoldBlue(s string) string { return d.boldBlue.Sprint(s) }
func (d *Decorator) BoldGreen(s string) string { return d.boldGreen.Sprint(s) }
func (d *Decorator) BoldDim(s string) string { return d.boldDim.Sprint(s) }
func (d *Decorator) BoldGray(s string) string { return d.boldGray.Sprint(s) }
func (d *Decorator) Blue(s string) string { return d.blue.Sprint(s) }
func (d *Decorator) Dim(s string) string { return d.dim.Sprint(s) }
func (d *Decorator) DimGreen(s string) string { return d.dimGreen.Sprint(s) }
func (d *Decorator) UnderlineBlue(s string) string { return d.underlineBlue.Sprint(s) }

// scanSummary renders "<status> (<n> files, <n> folders, <bytes> total)".
func (d *Decorator) scanSummary(t Totals, status string) string {
	return status + " " + d.Bold(fmt.Sprintf("(%d files, %d folders, %s)",
		t.FilesTotal, t.Directories, summaryBytes(t.BytesTotal)))
}

// fileLine renders the active file: "[ NN%] name" while partially read,
// the blank placeholder otherwise.
func (d *Decorator) fileLine(e FileEntry) string {
	pct := 0
	if e.Stats.BytesTotal > 0 {
		pct, _ = Percentage(e.Stats.BytesRead, e.Stats.BytesTotal)
	}
	var prefix string
	if pct > 0 && pct < 100 {
		prefix = d.BoldBlue("[" + padPercent(pct) + "%] ")
	} else {
		prefix = d.BoldGray(placeholder)
	}
	return prefix + d.Blue(e.Name)
}

// doneLine renders a drained file.
func (d *Decorator) doneLine(e FileEntry) string {
	return d.DimGreen("[Done] ") + d.Dim(e.Name)
}

// aggregateLine renders the whole-resource progress line.
func (d *Decorator) aggregateLine(snap Snapshot, status string) string {
	t := snap.Totals()
	c := snap.Counters()

	var b strings.Builder
	pct, ok := Percentage(c.BytesRead, t.BytesTotal)
	switch {
	case ok && pct == 100:
		b.WriteString(d.BoldGreen("[Done] "))
	case ok && pct >= 0:
		b.WriteString(d.BoldDim("[" + padPercent(pct) + "%] "))
	default:
		b.WriteString(strings.Repeat(" ", 8))
	}
	b.WriteString(d.Dim(fmt.Sprintf("%s: %d of %d", status, c.FilesRead, t.FilesTotal)))
	b.WriteString(d.Dim(fmt.Sprintf(" (%s of %s) ", HumanizeBytes(c.BytesRead), HumanizeBytes(t.BytesTotal))))
	if r := Rate(snap.Rate()); r != "" {
		b.WriteString(d.Dim(r + " "))
	}
	return b.String()
}

// sharingLine renders "[Sharing] dat://<link>".
func (d *Decorator) sharingLine(link string) string {
	return d.Bold("[Sharing] ") + d.UnderlineBlue(datURL(link))
}

// connectionLine renders the swarm summary.
func (d *Decorator) connectionLine(active, connecting int) string {
	return d.Bold("[Status] ") + "Connected to " + d.Bold(peerCount(active, connecting)) + " sources"
}

// peerCount is "<active>/<active+connecting>", or "0" when no peer is known.
func peerCount(active, connecting int) string {
	total := active + connecting
	if total == 0 {
		return "0"
	}
	return fmt.Sprintf("%d/%d", active, total)
}

func datURL(link string) string {
	return "dat://" + link
}
