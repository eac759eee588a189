package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ComposeOptions defines a compose-mode concatenation: every input is fitted
// into a common canvas (letterboxed, never cropped or stretched) and joined
// in order into one video-only stream.
type ComposeOptions struct {
	Inputs       []string
	Output       string
	Width        int
	Height       int
	FPS          int
	Preset       string
	CRF          int
	Total        time.Duration
	ProgressFunc ProgressFunc
}

// Compose merges multiple video files into one
func (e *Executor) Compose(ctx context.Context, opts ComposeOptions) error {
	args, err := composeArgs(opts)
	if err != nil {
		return err
	}

	e.logger.Info().
		Int("inputs", len(opts.Inputs)).
		Str("output", opts.Output).
		Int("width", opts.Width).
		Int("height", opts.Height).
		Msg("composing videos")

	runOpts := RunOptions{
		Args:            args,
		Total:           opts.Total,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("composing")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return fmt.Errorf("compose failed: %w", err)
	}
	return nil
}

// composeArgs builds the ffmpeg argument list for Compose
func composeArgs(opts ComposeOptions) ([]string, error) {
	if len(opts.Inputs) == 0 {
		return nil, errors.New("no input files provided")
	}
	if opts.Output == "" {
		return nil, errors.New("output path is required")
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid canvas %dx%d", opts.Width, opts.Height)
	}

	fps := opts.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}

	args := make([]string, 0, 2*len(opts.Inputs)+16)
	for _, input := range opts.Inputs {
		args = append(args, "-i", input)
	}

	var graph strings.Builder
	var labels strings.Builder
	for i := range opts.Inputs {
		chain := NewFilterBuilder().
			Fit(opts.Width, opts.Height).
			Letterbox(opts.Width, opts.Height).
			SquarePixels().
			FPS(fps).
			Format(DefaultPixelFormat).
			Build()
		fmt.Fprintf(&graph, "[%d:v:0]%s[v%d];", i, chain, i)
		fmt.Fprintf(&labels, "[v%d]", i)
	}
	fmt.Fprintf(&graph, "%sconcat=n=%d:v=1:a=0[outv]", labels.String(), len(opts.Inputs))

	args = append(args,
		"-filter_complex", graph.String(),
		"-map", "[outv]",
		"-an",
		"-c:v", DefaultVideoCodec,
		"-preset", preset,
		"-crf", strconv.Itoa(crf),
		"-r", strconv.Itoa(fps),
		"-pix_fmt", DefaultPixelFormat,
		"-movflags", "+faststart",
		opts.Output,
	)
	return args, nil
}
