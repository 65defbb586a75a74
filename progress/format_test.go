package progress

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestPercentage(t *testing.T) {
	tests := []struct {
		name        string
		read, total int64
		want        int
		ok          bool
	}{
		{"unknown total", 0, 0, 0, false},
		{"read without total", 5, 0, 0, false},
		{"zero", 0, 10, 0, true},
		{"floors", 1, 3, 33, true},
		{"forty", 2, 5, 40, true},
		{"done", 5, 5, 100, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percentage(tt.read, tt.total)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHumanizeBytes(t *testing.T) {
	assert.Equal(t, "0 B", HumanizeBytes(0))
	assert.Equal(t, "0 B", HumanizeBytes(-4))
	assert.Equal(t, "15 B", HumanizeBytes(15))
	assert.Equal(t, "1.5 kB", HumanizeBytes(1500))
	assert.Equal(t, "3.2 MB", HumanizeBytes(3_200_000))
}

func TestRate(t *testing.T) {
	assert.Equal(t, "", Rate(0))
	assert.Equal(t, "", Rate(-1))
	assert.Equal(t, "1.5 kB/s", Rate(1500))
}

func TestSummaryBytes_UnknownIsBlank(t *testing.T) {
	assert.Equal(t, "", summaryBytes(0))
	assert.Equal(t, "15 B total", summaryBytes(15))
}

func TestPeerCount(t *testing.T) {
	assert.Equal(t, "0", peerCount(0, 0))
	assert.Equal(t, "0/1", peerCount(0, 1))
	assert.Equal(t, "1/1", peerCount(1, 0))
	assert.Equal(t, "2/5", peerCount(2, 3))
}

func TestDecorator_Lines(t *testing.T) {
	d := NewDecorator(false)

	assert.Equal(t, "Getting Metadata (3 files, 1 folders, )",
		d.scanSummary(Totals{FilesTotal: 3, Directories: 1}, "Getting Metadata"))
	assert.Equal(t, "Downloading Data (3 files, 1 folders, 1.5 kB total)",
		d.scanSummary(Totals{FilesTotal: 3, Directories: 1, BytesTotal: 1500}, "Downloading Data"))

	assert.Equal(t, "[Done] a", d.doneLine(file("a", 1, 1)))
	assert.Equal(t, "[ 40%] b", d.fileLine(file("b", 2, 5)))
	assert.Equal(t, "[Sharing] dat://"+testLink, d.sharingLine(testLink))
	assert.Equal(t, "[Status] Connected to 0/1 sources", d.connectionLine(0, 1))
}

func TestDecorator_FileLinePlaceholder(t *testing.T) {
	d := NewDecorator(false)

	assert.Equal(t, "       b", d.fileLine(file("b", 0, 5)), "nothing read yet")
	assert.Equal(t, "       b", d.fileLine(file("b", 7, 5)), "read past the total")
	assert.Equal(t, "       b", d.fileLine(file("b", 3, 0)), "unknown size")
}

func TestDecorator_AggregateLine(t *testing.T) {
	d := NewDecorator(false)

	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{
			name: "in progress",
			snap: Snapshot{Total: totals(2, 0, 15), Progress: counters(12, 1)},
			want: "[ 80%] Downloading Data: 1 of 2 (12 B of 15 B) ",
		},
		{
			name: "with rate",
			snap: Snapshot{Total: totals(2, 0, 15), Progress: counters(3, 0), DownloadRate: int64Ptr(1500)},
			want: "[ 20%] Downloading Data: 0 of 2 (3 B of 15 B) 1.5 kB/s ",
		},
		{
			name: "done",
			snap: Snapshot{Total: totals(2, 0, 15), Progress: counters(15, 2)},
			want: "[Done] Downloading Data: 2 of 2 (15 B of 15 B) ",
		},
		{
			name: "unknown total",
			snap: Snapshot{Progress: counters(3, 0)},
			want: "        Downloading Data: 0 of 0 (3 B of 0 B) ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, d.aggregateLine(tt.snap, "Downloading Data"))
		})
	}
}

func TestDecorator_EnabledEmitsEscapes(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	assert.Contains(t, NewDecorator(true).Bold("x"), "\x1b[")
	assert.Equal(t, "x", NewDecorator(false).Bold("x"))
}

func int64Ptr(v int64) *int64 { return &v }
