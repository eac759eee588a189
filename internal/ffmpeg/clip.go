package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/keagan/scriptreel/pkg/util"
)

// TrimOptions defines a head trim: keep [0, Duration) of the first video stream
type TrimOptions struct {
	Duration     time.Duration
	Output       string
	Preset       string
	CRF          int
	ProgressFunc ProgressFunc
}

// Trim re-encodes the head of input into a video-only clip.
// ffmpeg stops at the end of input when Duration exceeds the source.
func (e *Executor) Trim(ctx context.Context, input string, opts TrimOptions) error {
	if input == "" {
		return errors.New("input path is required")
	}
	if opts.Output == "" {
		return errors.New("output path is required")
	}
	if opts.Duration <= 0 {
		return fmt.Errorf("invalid clip duration %v: must be positive", opts.Duration)
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Dur("duration", opts.Duration).
		Msg("trimming clip")

	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	args := []string{
		"-i", input,
		"-t", util.FormatDuration(opts.Duration),
		"-map", "0:v:0",
		"-an",
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-pix_fmt", DefaultPixelFormat,
		opts.Output,
	}

	runOpts := RunOptions{
		Args:            args,
		Total:           opts.Duration,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("trim output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("clip trim failed: %w", err)
	}

	e.logger.Debug().Str("output", opts.Output).Msg("clip trim complete")
	return nil
}
