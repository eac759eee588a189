package pipeline

import (
	"time"

	"github.com/google/uuid"
	"github.com/keagan/scriptreel/internal/clips"
	"github.com/keagan/scriptreel/internal/video"
)

// State is the phase a run is in
type State int

const (
	StateIdle State = iota
	StateSegmenting
	StateProcessingScenes
	StateAssembling
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSegmenting:
		return "segmenting"
	case StateProcessingScenes:
		return "processing_scenes"
	case StateAssembling:
		return "assembling"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ScenePlan is what a scene will ask the provider for
type ScenePlan struct {
	Index   int
	Text    string
	Query   string
	Seconds int
}

// SceneResult records what happened to one scene
type SceneResult struct {
	Index   int
	Query   string
	Seconds int
	Outcome Outcome
	// Set when Outcome is OutcomeOK
	Clip *clips.Clip
	// Set for every other outcome
	Err error
}

// Succeeded reports whether the scene produced a clip
func (r SceneResult) Succeeded() bool {
	return r.Outcome == OutcomeOK
}

// Result is a finished run
type Result struct {
	RunID   uuid.UUID
	Output  *video.Output
	Scenes  []SceneResult
	Elapsed time.Duration
}

// Skipped returns the scenes that contributed no clip
func (r *Result) Skipped() []SceneResult {
	var out []SceneResult
	for _, s := range r.Scenes {
		if !s.Succeeded() {
			out = append(out, s)
		}
	}
	return out
}

// Config holds pipeline-specific configuration
type Config struct {
	// Parent directory for the per-run workspace; empty means os.TempDir
	TempDir string
	// Floor for the per-scene clip length
	MinSeconds int
}
