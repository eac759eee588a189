// Package video joins scene clips into the final artifact.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/renameio/v2"
	"github.com/keagan/scriptreel/internal/clips"
	"github.com/keagan/scriptreel/internal/ffmpeg"
	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog"
)

// ErrNoClips is returned when there is nothing to assemble
var ErrNoClips = errors.New("no clips to assemble")

// Composer encodes several inputs onto one canvas
type Composer interface {
	Compose(ctx context.Context, opts ffmpeg.ComposeOptions) error
}

// Options configures the final encode
type Options struct {
	// Stable path of the published video
	Output string
	Width  int
	Height int
	FPS    int
	Preset string
	CRF    int
}

// Output describes a published video
type Output struct {
	Path     string
	Clips    int
	Duration time.Duration
}

// Assembler concatenates clips in order
type Assembler struct {
	logger   zerolog.Logger
	composer Composer
	opts     Options
}

// NewAssembler creates an assembler
func NewAssembler(logger zerolog.Logger, composer Composer, opts Options) *Assembler {
	if opts.FPS <= 0 {
		opts.FPS = ffmpeg.DefaultFPS
	}
	return &Assembler{
		logger:   logger.With().Str("component", "video").Logger(),
		composer: composer,
		opts:     opts,
	}
}

// Assemble encodes the clips held by set into workspace, then atomically
// replaces the output path with the result. A failed run leaves any previous
// output untouched.
func (a *Assembler) Assemble(ctx context.Context, workspace string, set *clips.Manager, progress ffmpeg.ProgressFunc) (*Output, error) {
	if set == nil || set.Len() == 0 {
		return nil, ErrNoClips
	}
	if a.opts.Output == "" {
		return nil, errors.New("output path is required")
	}

	inputs := set.Paths()
	total := set.TotalDuration()

	encoded := filepath.Join(workspace, "assembled.mp4")
	defer util.CleanupFiles(encoded)

	a.logger.Info().
		Int("clips", set.Len()).
		Dur("duration", total).
		Str("output", a.opts.Output).
		Msg("assembling video")

	err := a.composer.Compose(ctx, ffmpeg.ComposeOptions{
		Inputs:       inputs,
		Output:       encoded,
		Width:        a.opts.Width,
		Height:       a.opts.Height,
		FPS:          a.opts.FPS,
		Preset:       a.opts.Preset,
		CRF:          a.opts.CRF,
		Total:        total,
		ProgressFunc: progress,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	if err := publish(encoded, a.opts.Output); err != nil {
		return nil, err
	}

	a.logger.Info().Str("output", a.opts.Output).Msg("video assembled")

	return &Output{
		Path:     a.opts.Output,
		Clips:    set.Len(),
		Duration: total,
	}, nil
}

// publish copies src over dest through a pending file in dest's directory
// so readers see either the old file or the complete new one
func publish(src, dest string) error {
	if err := util.EnsureDir(filepath.Dir(dest)); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open encoded video: %w", err)
	}
	defer func() { _ = in.Close() }()

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("create pending output: %w", err)
	}
	defer func() { _ = pending.Cleanup() }()

	if _, err := io.Copy(pending, in); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
