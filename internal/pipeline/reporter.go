package pipeline

import (
	"github.com/rs/zerolog"
)

// Reporter receives run events. Calls happen on the goroutine running the
// pipeline, in order.
type Reporter interface {
	State(s State)
	// SceneStarted announces scene index of total with its search query
	SceneStarted(index, total int, query string)
	// Progress reports a fraction in [0, 1]. Index 0 is the final encode.
	Progress(index int, fraction float64)
	Warn(index int, msg string, err error)
	Done(res *Result)
	Failed(err error)
}

// NopReporter ignores every event
type NopReporter struct{}

func (NopReporter) State(State)                   {}
func (NopReporter) SceneStarted(int, int, string) {}
func (NopReporter) Progress(int, float64)         {}
func (NopReporter) Warn(int, string, error)       {}
func (NopReporter) Done(*Result)                  {}
func (NopReporter) Failed(error)                  {}

// progressStep is how far a fraction must move before LogReporter logs it again
const progressStep = 0.25

// LogReporter writes run events to a zerolog logger
type LogReporter struct {
	logger zerolog.Logger
	last   map[int]float64
}

// NewLogReporter creates a reporter on logger
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{
		logger: logger,
		last:   make(map[int]float64),
	}
}

func (r *LogReporter) State(s State) {
	r.logger.Debug().Stringer("state", s).Msg("pipeline state")
}

func (r *LogReporter) SceneStarted(index, total int, query string) {
	r.logger.Info().
		Int("scene", index).
		Int("total", total).
		Str("query", query).
		Msgf("Cena %d: %s", index, query)
}

func (r *LogReporter) Progress(index int, fraction float64) {
	prev, seen := r.last[index]
	if seen && fraction < 1 && fraction-prev < progressStep {
		return
	}
	r.last[index] = fraction

	event := r.logger.Info()
	if index > 0 {
		event = event.Int("scene", index)
	} else {
		event = event.Str("stage", "encode")
	}
	event.Float64("progress", fraction).Msgf("%3.0f%%", fraction*100)
}

func (r *LogReporter) Warn(index int, msg string, err error) {
	r.logger.Warn().Int("scene", index).Err(err).Msg(msg)
}

func (r *LogReporter) Done(res *Result) {
	event := r.logger.Info().
		Str("run_id", res.RunID.String()).
		Int("scenes", len(res.Scenes)).
		Int("skipped", len(res.Skipped())).
		Dur("elapsed", res.Elapsed)
	if res.Output != nil {
		event = event.Str("output", res.Output.Path).Dur("duration", res.Output.Duration)
	}
	event.Msg("video ready")
}

func (r *LogReporter) Failed(err error) {
	r.logger.Error().Err(err).Msg("run failed")
}
