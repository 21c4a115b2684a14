package indexer

import "time"

// Phase identifies where a bulk indexing run is in its lifecycle. Phases
// advance strictly in declaration order; PhaseError absorbs unrecoverable
// failures from any state.
type Phase string

const (
	PhaseScanning          Phase = "scanning"
	PhaseIndexing          Phase = "indexing"
	PhaseContentExtraction Phase = "content_extraction"
	PhaseFinalizing        Phase = "finalizing"
	PhaseComplete          Phase = "complete"
	PhaseError             Phase = "error"
)

// Progress is a transient status update emitted during a bulk run.
type Progress struct {
	CurrentPath    string        `json:"current_path"`
	ProcessedFiles int64         `json:"processed_files"`
	TotalFiles     int64         `json:"total_files"`
	Speed          float64       `json:"processing_speed"` // files per second
	Remaining      time.Duration `json:"estimated_time_remaining"`
	Running        bool          `json:"is_running"`
	Phase          Phase         `json:"phase"`
	Error          string        `json:"error,omitempty"`
}

// progressFeed delivers updates over a bounded channel. When the buffer is
// full the oldest pending update is dropped, so a slow or absent observer
// never blocks the pipeline and the terminal update always lands.
type progressFeed struct {
	ch chan Progress
}

const progressBuffer = 256

func newProgressFeed() *progressFeed {
	return &progressFeed{ch: make(chan Progress, progressBuffer)}
}

func (f *progressFeed) send(p Progress) {
	for {
		select {
		case f.ch <- p:
			return
		default:
			select {
			case <-f.ch: // drop oldest
			default:
			}
		}
	}
}

// poll returns the next pending update without blocking, or nil when none
// is waiting.
func (f *progressFeed) poll() *Progress {
	select {
	case p := <-f.ch:
		return &p
	default:
		return nil
	}
}
