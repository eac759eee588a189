package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/keagan/scriptreel/internal/assets"
	"github.com/keagan/scriptreel/internal/clips"
)

// ErrRunExhausted means no scene produced a clip, so nothing was assembled
var ErrRunExhausted = errors.New("run exhausted: no scene produced a clip")

// RunExhaustedError lists why every scene was skipped
type RunExhaustedError struct {
	Failures []SceneResult
}

func (e *RunExhaustedError) Error() string {
	if len(e.Failures) == 0 {
		return ErrRunExhausted.Error() + " (script has no scenes)"
	}
	var b strings.Builder
	b.WriteString(ErrRunExhausted.Error())
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "; scene %d (%s): %v", f.Index, f.Outcome, f.Err)
	}
	return b.String()
}

func (e *RunExhaustedError) Unwrap() error {
	return ErrRunExhausted
}

// Outcome labels how a scene ended
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeConfiguration   Outcome = "configuration"
	OutcomeResolution      Outcome = "resolution"
	OutcomeTransport       Outcome = "transport"
	OutcomeMaterialization Outcome = "materialization"
	OutcomeCanceled        Outcome = "canceled"
	OutcomeUnknown         Outcome = "unknown"
)

// Classify maps a scene error onto its outcome
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, assets.ErrMissingCredential):
		return OutcomeConfiguration
	case errors.Is(err, assets.ErrNoResults), errors.Is(err, assets.ErrNoUsableLink):
		return OutcomeResolution
	case errors.Is(err, assets.ErrTransport), errors.Is(err, clips.ErrDownload):
		return OutcomeTransport
	case errors.Is(err, clips.ErrTrim):
		return OutcomeMaterialization
	default:
		return OutcomeUnknown
	}
}
