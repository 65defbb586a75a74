package progress

import (
	"sort"

	"github.com/maruel/natural"
	"github.com/samber/lo"
)

// Totals describes the expected size of a resource. BytesTotal is 0 until
// the engine knows it.
type Totals struct {
	FilesTotal  int64 `json:"filesTotal" yaml:"filesTotal"`
	Directories int64 `json:"directories" yaml:"directories"`
	BytesTotal  int64 `json:"bytesTotal" yaml:"bytesTotal"`
}

// Counters holds how much of a resource has been read so far.
type Counters struct {
	BytesRead int64 `json:"bytesRead" yaml:"bytesRead"`
	FilesRead int64 `json:"filesRead" yaml:"filesRead"`
}

// FileStats is the byte progress of a single file.
type FileStats struct {
	BytesTotal int64 `json:"bytesTotal" yaml:"bytesTotal"`
	BytesRead  int64 `json:"bytesRead" yaml:"bytesRead"`
}

// FileEntry is one in-flight file of a resource.
type FileEntry struct {
	Name  string    `json:"name" yaml:"name"`
	Stats FileStats `json:"stats" yaml:"stats"`
}

// Complete reports whether every byte of the file has been read.
func (e FileEntry) Complete() bool {
	return e.Stats.BytesRead == e.Stats.BytesTotal
}

// Snapshot is one polled status reading for a single resource.
// A nil field was absent from the poll; Merge keeps the previous value for it.
type Snapshot struct {
	Total            *Totals    `json:"total,omitempty" yaml:"total,omitempty"`
	Progress         *Counters  `json:"progress,omitempty" yaml:"progress,omitempty"`
	DownloadRate     *int64     `json:"downloadRate,omitempty" yaml:"downloadRate,omitempty"`
	FileQueue        *FileQueue `json:"fileQueue,omitempty" yaml:"fileQueue,omitempty"`
	Downloading      *bool      `json:"downloading,omitempty" yaml:"downloading,omitempty"`
	GettingMetadata  *bool      `json:"gettingMetadata,omitempty" yaml:"gettingMetadata,omitempty"`
	HasMetadata      *bool      `json:"hasMetadata,omitempty" yaml:"hasMetadata,omitempty"`
	SharingLink      *bool      `json:"sharingLink,omitempty" yaml:"sharingLink,omitempty"`
	DownloadComplete *bool      `json:"downloadComplete,omitempty" yaml:"downloadComplete,omitempty"`
}

// Merge folds next over s. Each top-level field present in next replaces
// the previous value wholesale; nested objects are not deep-merged.
// The file queue is cloned so the result never aliases next.
func (s Snapshot) Merge(next Snapshot) Snapshot {
	out := s
	if next.Total != nil {
		out.Total = lo.ToPtr(*next.Total)
	}
	if next.Progress != nil {
		out.Progress = lo.ToPtr(*next.Progress)
	}
	if next.DownloadRate != nil {
		out.DownloadRate = lo.ToPtr(*next.DownloadRate)
	}
	if next.FileQueue != nil {
		out.FileQueue = next.FileQueue.Clone()
	}
	if next.Downloading != nil {
		out.Downloading = lo.ToPtr(*next.Downloading)
	}
	if next.GettingMetadata != nil {
		out.GettingMetadata = lo.ToPtr(*next.GettingMetadata)
	}
	if next.HasMetadata != nil {
		out.HasMetadata = lo.ToPtr(*next.HasMetadata)
	}
	if next.SharingLink != nil {
		out.SharingLink = lo.ToPtr(*next.SharingLink)
	}
	if next.DownloadComplete != nil {
		out.DownloadComplete = lo.ToPtr(*next.DownloadComplete)
	}
	return out
}

// Totals returns the totals, zero-valued when absent.
func (s Snapshot) Totals() Totals { return lo.FromPtr(s.Total) }

// Counters returns the progress counters, zero-valued when absent.
func (s Snapshot) Counters() Counters { return lo.FromPtr(s.Progress) }

// Rate returns the download rate in bytes/sec, 0 when absent.
func (s Snapshot) Rate() int64 { return lo.FromPtr(s.DownloadRate) }

func (s Snapshot) IsDownloading() bool { return lo.FromPtr(s.Downloading) }
func (s Snapshot) IsGettingMetadata() bool { return lo.FromPtr(s.GettingMetadata) }
func (s Snapshot) IsMetadataReady() bool { return lo.FromPtr(s.HasMetadata) }
func (s Snapshot) IsSharingLink() bool { return lo.FromPtr(s.SharingLink) }
func (s Snapshot) IsDownloadComplete() bool { return lo.FromPtr(s.DownloadComplete) }

// Status is one status reading for every tracked resource, keyed by
// absolute directory path or link identifier.
type Status map[string]Snapshot

// Merge folds next over s and returns a new Status. Resources present in
// next are merged field by field; resources absent from next are kept.
func (s Status) Merge(next Status) Status {
	out := make(Status, len(s)+len(next))
	for id, snap := range s {
		out[id] = snap
	}
	for id, snap := range next {
		out[id] = out[id].Merge(snap)
	}
	return out
}

// Resources returns the resource identifiers in natural order.
func (s Status) Resources() []string {
	ids := lo.Keys(s)
	sort.Sort(natural.StringSlice(ids))
	return ids
}
