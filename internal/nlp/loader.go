package nlp

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog"
)

//go:embed lexicons/*.yaml
var bundled embed.FS

// ErrUnknownModel is returned for a model name with no bundled lexicon
var ErrUnknownModel = errors.New("unknown language model")

// DefaultModel is the lexicon used when none is configured
const DefaultModel = "pt_core_news_sm"

// Available lists the bundled model names
func Available() []string {
	entries, err := fs.ReadDir(bundled, "lexicons")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// ModelPath is where a model named name lives inside dir
func ModelPath(dir, name string) string {
	return filepath.Join(dir, name+".yaml")
}

// Install writes the bundled lexicon for name into dir and returns its path
func Install(dir, name string) (string, error) {
	data, err := bundled.ReadFile(path.Join("lexicons", name+".yaml"))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, name)
	}
	if err := util.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("create model dir: %w", err)
	}
	dest := ModelPath(dir, name)
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return "", fmt.Errorf("install model %s: %w", name, err)
	}
	return dest, nil
}

// Load reads a lexicon file
func Load(file string) (*LexiconModel, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	m, err := ParseLexicon(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", file, err)
	}
	return m, nil
}

// Loader owns the process-wide model instance. The first Model call loads
// the lexicon from the model directory, installing the bundled copy when it
// is missing; later calls return the same instance.
type Loader struct {
	logger zerolog.Logger
	dir    string
	name   string

	once  sync.Once
	model Model
	err   error
}

// NewLoader creates a loader for model name stored under dir
func NewLoader(logger zerolog.Logger, dir, name string) *Loader {
	if name == "" {
		name = DefaultModel
	}
	return &Loader{
		logger: logger.With().Str("component", "nlp").Logger(),
		dir:    dir,
		name:   name,
	}
}

// Model returns the shared model, initializing it on first use
func (l *Loader) Model() (Model, error) {
	l.once.Do(func() {
		l.model, l.err = l.loadOrInstall()
	})
	return l.model, l.err
}

func (l *Loader) loadOrInstall() (Model, error) {
	file := ModelPath(l.dir, l.name)

	if !util.FileExists(file) {
		l.logger.Info().Str("model", l.name).Str("dir", l.dir).Msg("language model not found, installing")
		installed, err := Install(l.dir, l.name)
		if err != nil {
			return nil, err
		}
		file = installed
	}

	m, err := Load(file)
	if err != nil {
		return nil, err
	}
	l.logger.Debug().Str("model", m.Name()).Str("path", file).Msg("language model loaded")
	return m, nil
}
