package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/scriptreel/internal/assets"
	"github.com/keagan/scriptreel/internal/clips"
	"github.com/keagan/scriptreel/internal/ffmpeg"
	"github.com/keagan/scriptreel/internal/logging"
	"github.com/keagan/scriptreel/internal/metrics"
	"github.com/keagan/scriptreel/internal/script"
	"github.com/keagan/scriptreel/internal/video"
	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog"
)

// KeywordExtractor derives a search query from scene text
type KeywordExtractor interface {
	Extract(text string) string
}

// AssetResolver finds a stock clip for a query
type AssetResolver interface {
	Resolve(ctx context.Context, query string) (*assets.Asset, error)
}

// ClipMaterializer downloads and trims an asset
type ClipMaterializer interface {
	Materialize(ctx context.Context, scene int, asset *assets.Asset, target time.Duration, dir string, progress clips.ProgressFunc) (*clips.Clip, error)
}

// VideoAssembler joins clips into the final video
type VideoAssembler interface {
	Assemble(ctx context.Context, workspace string, set *clips.Manager, progress ffmpeg.ProgressFunc) (*video.Output, error)
}

// Deps are the stages a pipeline drives
type Deps struct {
	Keywords     KeywordExtractor
	Resolver     AssetResolver
	Materializer ClipMaterializer
	Assembler    VideoAssembler
	Reporter     Reporter
}

// Pipeline turns a narration script into one stock-footage video
type Pipeline struct {
	logger    zerolog.Logger
	config    *Config
	estimator script.Estimator
	deps      Deps

	mu    sync.Mutex
	state State
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *Config, deps Deps) (*Pipeline, error) {
	if cfg == nil {
		cfg = &Config{MinSeconds: script.MinSeconds}
	}
	if deps.Keywords == nil || deps.Resolver == nil || deps.Materializer == nil || deps.Assembler == nil {
		return nil, errors.New("pipeline needs keywords, resolver, materializer and assembler")
	}
	if deps.Reporter == nil {
		deps.Reporter = NopReporter{}
	}

	return &Pipeline{
		logger:    logger.With().Str("component", "pipeline").Logger(),
		config:    cfg,
		estimator: script.Estimator{MinSeconds: cfg.MinSeconds},
		deps:      deps,
		state:     StateIdle,
	}, nil
}

// State returns the current run phase
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Pipeline) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
	p.deps.Reporter.State(s)
}

// Plan segments the script and derives each scene's query and length
// without touching the network
func (p *Pipeline) Plan(text string, wpm int) []ScenePlan {
	return Plan(p.deps.Keywords, p.estimator, text, wpm)
}

// Plan is the dry run behind Pipeline.Plan, usable without the network stages
func Plan(extractor KeywordExtractor, estimator script.Estimator, text string, wpm int) []ScenePlan {
	scenes := script.Split(text)
	plans := make([]ScenePlan, 0, len(scenes))
	for _, s := range scenes {
		plans = append(plans, planScene(extractor, estimator, s, wpm))
	}
	return plans
}

func planScene(extractor KeywordExtractor, estimator script.Estimator, s script.Scene, wpm int) ScenePlan {
	return ScenePlan{
		Index:   s.Index,
		Text:    s.Text,
		Query:   extractor.Extract(s.Text),
		Seconds: estimator.Seconds(s.Text, wpm),
	}
}

// Run processes every scene in order and assembles the clips that
// succeeded. Scene failures are reported and skipped; the run fails only
// when no scene produced a clip, when assembly fails, or when ctx ends.
func (p *Pipeline) Run(ctx context.Context, text string, wpm int) (*Result, error) {
	start := time.Now()
	runID := uuid.New()
	logger := logging.WithRun(p.logger, runID.String())

	res, err := p.run(ctx, logger, runID, text, wpm)
	elapsed := time.Since(start)

	if err != nil {
		result := "failed"
		if errors.Is(err, ErrRunExhausted) {
			result = "exhausted"
		}
		p.setState(StateFailed)
		metrics.RecordRun(result, elapsed.Seconds())
		logger.Debug().Err(err).Dur("elapsed", elapsed).Msg("run ended without output")
		p.deps.Reporter.Failed(err)
		return nil, err
	}

	res.Elapsed = elapsed
	p.setState(StateDone)
	metrics.RecordRun("done", elapsed.Seconds())
	logger.Debug().Dur("elapsed", elapsed).Str("output", res.Output.Path).Msg("run complete")
	p.deps.Reporter.Done(res)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, logger zerolog.Logger, runID uuid.UUID, text string, wpm int) (*Result, error) {
	p.setState(StateSegmenting)
	scenes := script.Split(text)
	logger.Info().Int("scenes", len(scenes)).Int("wpm", wpm).Msg("script segmented")

	workspace, err := p.acquireWorkspace()
	if err != nil {
		return nil, err
	}
	defer p.releaseWorkspace(logger, workspace)

	p.setState(StateProcessingScenes)
	manager := clips.NewManager()
	results := make([]SceneResult, 0, len(scenes))

	for _, scene := range scenes {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run canceled before scene %d: %w", scene.Index, err)
		}

		sr := p.processScene(ctx, logger, scene, len(scenes), wpm, workspace)
		if sr.Succeeded() {
			if err := manager.Add(sr.Clip); err != nil {
				sr.Outcome, sr.Clip, sr.Err = OutcomeUnknown, nil, err
			}
		}
		if !sr.Succeeded() {
			p.deps.Reporter.Warn(scene.Index, fmt.Sprintf("scene %d skipped (%s): query %q", scene.Index, sr.Outcome, sr.Query), sr.Err)
		}
		metrics.RecordScene(string(sr.Outcome))
		results = append(results, sr)
	}

	if manager.Len() == 0 {
		return nil, &RunExhaustedError{Failures: results}
	}

	p.setState(StateAssembling)
	out, err := p.deps.Assembler.Assemble(ctx, workspace, manager, func(prog *ffmpeg.Progress) {
		if prog.Percentage > 0 {
			p.deps.Reporter.Progress(0, prog.Percentage)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("assemble video: %w", err)
	}

	return &Result{
		RunID:  runID,
		Output: out,
		Scenes: results,
	}, nil
}

func (p *Pipeline) processScene(ctx context.Context, logger zerolog.Logger, scene script.Scene, total, wpm int, workspace string) SceneResult {
	plan := planScene(p.deps.Keywords, p.estimator, scene, wpm)
	sr := SceneResult{Index: plan.Index, Query: plan.Query, Seconds: plan.Seconds}

	p.deps.Reporter.SceneStarted(plan.Index, total, plan.Query)
	logger.Debug().
		Int("scene", plan.Index).
		Str("query", plan.Query).
		Int("seconds", plan.Seconds).
		Msg("processing scene")

	fail := func(err error) SceneResult {
		sr.Outcome = Classify(err)
		sr.Err = err
		logger.Debug().Err(err).Int("scene", plan.Index).Str("query", plan.Query).Str("outcome", string(sr.Outcome)).Msg("scene skipped")
		return sr
	}

	asset, err := p.deps.Resolver.Resolve(ctx, plan.Query)
	if err != nil {
		return fail(err)
	}

	target := time.Duration(plan.Seconds) * time.Second
	clip, err := p.deps.Materializer.Materialize(ctx, plan.Index, asset, target, workspace, func(fraction float64) {
		p.deps.Reporter.Progress(plan.Index, fraction)
	})
	if err != nil {
		return fail(err)
	}

	sr.Outcome = OutcomeOK
	sr.Clip = clip
	return sr
}

func (p *Pipeline) acquireWorkspace() (string, error) {
	dir, err := util.MakeWorkspace(p.config.TempDir, "scriptreel-run-*")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	return dir, nil
}

func (p *Pipeline) releaseWorkspace(logger zerolog.Logger, dir string) {
	if err := os.RemoveAll(dir); err != nil {
		logger.Warn().Err(err).Str("workspace", dir).Msg("failed to remove workspace")
		return
	}
	logger.Debug().Str("workspace", dir).Msg("workspace removed")
}
