package clips

import (
	"fmt"
	"time"
)

// Clip is one materialized scene segment on disk
type Clip struct {
	ID        string
	Scene     int
	Path      string
	Duration  time.Duration
	SourceURL string
	Metadata  map[string]interface{}
}

// Manager keeps clips in scene order
type Manager struct {
	clips []*Clip
}

// NewManager creates a new clip manager
func NewManager() *Manager {
	return &Manager{
		clips: make([]*Clip, 0),
	}
}

// Add appends a clip. Clips must arrive in ascending scene order.
func (m *Manager) Add(clip *Clip) error {
	if clip == nil {
		return fmt.Errorf("nil clip")
	}
	if n := len(m.clips); n > 0 && m.clips[n-1].Scene >= clip.Scene {
		return fmt.Errorf("clip for scene %d added after scene %d", clip.Scene, m.clips[n-1].Scene)
	}
	m.clips = append(m.clips, clip)
	return nil
}

// All returns all clips
func (m *Manager) All() []*Clip {
	return m.clips
}

// Len returns the number of clips held
func (m *Manager) Len() int {
	return len(m.clips)
}

// Paths returns clip file paths in order
func (m *Manager) Paths() []string {
	paths := make([]string, 0, len(m.clips))
	for _, c := range m.clips {
		paths = append(paths, c.Path)
	}
	return paths
}

// TotalDuration sums clip lengths
func (m *Manager) TotalDuration() time.Duration {
	var total time.Duration
	for _, c := range m.clips {
		total += c.Duration
	}
	return total
}
