package progress

// Phase is the detector's classification of a download for one poll.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseMetadataReady
	PhaseGettingMetadata
	PhaseDownloading
)

func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseMetadataReady:
		return "metadata-ready"
	case PhaseGettingMetadata:
		return "getting-metadata"
	case PhaseDownloading:
		return "downloading"
	default:
		return "idle"
	}
}

// DetectPhase returns the first matching phase in priority order.
// gettingMetadata is the session's own flag, which is cleared once the
// metadata transition has been printed, not the raw engine flag.
//
// An unknown byte total always means Connecting: nothing after it may
// compute a percentage.
func DetectPhase(snap Snapshot, gettingMetadata bool) Phase {
	hasMetadata := snap.IsMetadataReady()
	switch {
	case snap.Totals().BytesTotal == 0:
		return PhaseConnecting
	case hasMetadata && gettingMetadata:
		return PhaseMetadataReady
	case gettingMetadata && !hasMetadata:
		return PhaseGettingMetadata
	case snap.IsDownloading():
		return PhaseDownloading
	}
	return PhaseIdle
}

// Stage is the lifecycle of a session. It only moves forward.
type Stage int

const (
	StageConnecting Stage = iota
	StageScanning
	StageGettingMetadata
	StageDownloading
	StageComplete
)

func (s Stage) String() string {
	switch s {
	case StageConnecting:
		return "connecting"
	case StageScanning:
		return "scanning"
	case StageGettingMetadata:
		return "getting-metadata"
	case StageDownloading:
		return "downloading"
	case StageComplete:
		return "complete"
	}
	return "unknown"
}

// advance moves s to next unless next is behind it.
func (s Stage) advance(next Stage) Stage {
	if next > s {
		return next
	}
	return s
}
