package pipeline

import (
	"fmt"

	"github.com/keagan/scriptreel/internal/assets"
	"github.com/keagan/scriptreel/internal/clips"
	"github.com/keagan/scriptreel/internal/config"
	"github.com/keagan/scriptreel/internal/ffmpeg"
	"github.com/keagan/scriptreel/internal/keywords"
	"github.com/keagan/scriptreel/internal/metrics"
	"github.com/keagan/scriptreel/internal/nlp"
	"github.com/keagan/scriptreel/internal/pexels"
	"github.com/keagan/scriptreel/internal/video"
	"github.com/rs/zerolog"
)

// NewKeywordExtractor builds the extractor over the configured language
// model. The model is loaded on first use.
func NewKeywordExtractor(logger zerolog.Logger, appCfg *config.Config) *keywords.Extractor {
	loader := nlp.NewLoader(logger, appCfg.Keywords.ModelDir, appCfg.Keywords.Model)
	return keywords.New(logger, loader, appCfg.Keywords.Count)
}

// FromConfig wires every stage from application configuration
func FromConfig(logger zerolog.Logger, appCfg *config.Config, reporter Reporter) (*Pipeline, error) {
	ffmpegExec, err := ffmpeg.New(logger, ffmpeg.Options{
		BinaryPath: appCfg.FFmpeg.BinaryPath,
		ProbePath:  appCfg.FFmpeg.ProbePath,
		Threads:    appCfg.FFmpeg.Threads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ffmpeg: %w", err)
	}

	client := pexels.New(logger, pexels.Options{
		APIKey:          appCfg.Pexels.APIKey,
		BaseURL:         appCfg.Pexels.BaseURL,
		Timeout:         appCfg.Pexels.Timeout,
		RequestsPerHour: appCfg.Pexels.RequestsPerHour,
		Burst:           appCfg.Pexels.Burst,
		Observe:         metrics.RecordProviderRequest,
	})
	if !client.HasCredential() {
		logger.Warn().Str("env", config.EnvAPIKey).Msg("no Pexels API key configured, every scene will be skipped")
	}

	resolver := assets.NewResolver(logger, client, assets.Options{
		PerPage: appCfg.Pexels.PerPage,
		HDOnly:  appCfg.Pexels.HDOnly,
	})

	materializer := clips.NewMaterializer(logger, ffmpegExec, clips.Options{
		Preset:  appCfg.FFmpeg.Preset,
		CRF:     appCfg.FFmpeg.CRF,
		Timeout: appCfg.Pexels.Timeout,
		OnBytes: metrics.AddDownloadBytes,
	})

	assembler := video.NewAssembler(logger, ffmpegExec, video.Options{
		Output: appCfg.Output.Path,
		Width:  appCfg.Output.Width,
		Height: appCfg.Output.Height,
		FPS:    appCfg.Output.FPS,
		Preset: appCfg.FFmpeg.Preset,
		CRF:    appCfg.FFmpeg.CRF,
	})

	return New(logger, &Config{
		TempDir:    appCfg.TempDir,
		MinSeconds: appCfg.Narration.MinSeconds,
	}, Deps{
		Keywords:     NewKeywordExtractor(logger, appCfg),
		Resolver:     resolver,
		Materializer: materializer,
		Assembler:    assembler,
		Reporter:     reporter,
	})
}
