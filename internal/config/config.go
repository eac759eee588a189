package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Environment variables consulted after the config file
const (
	EnvAPIKey  = "PEXELS_API_KEY"
	EnvOutput  = "SCRIPTREEL_OUTPUT"
	EnvTempDir = "SCRIPTREEL_TEMP_DIR"
)

// Narration speed bounds accepted by the CLI
const (
	MinWPM = 100
	MaxWPM = 250
)

// OutputFileName is the stable name of the assembled video
const OutputFileName = "roteiro_final.mp4"

// Config holds all application configuration
type Config struct {
	// Parent directory for per-run workspaces
	TempDir string `yaml:"temp_dir"`

	Narration NarrationConfig `yaml:"narration"`
	Keywords  KeywordsConfig  `yaml:"keywords"`
	Pexels    PexelsConfig    `yaml:"pexels"`
	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Output    OutputConfig    `yaml:"output"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type NarrationConfig struct {
	WPM        int `yaml:"wpm"`
	MinSeconds int `yaml:"min_seconds"`
}

type KeywordsConfig struct {
	Count    int    `yaml:"count"`
	Model    string `yaml:"model"`
	ModelDir string `yaml:"model_dir"`
}

type PexelsConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	PerPage         int           `yaml:"per_page"`
	HDOnly          bool          `yaml:"hd_only"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestsPerHour float64       `yaml:"requests_per_hour"`
	Burst           int           `yaml:"burst"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
}

type OutputConfig struct {
	Path   string `yaml:"path"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	FPS    int    `yaml:"fps"`
}

type MetricsConfig struct {
	// Prometheus textfile written after each run; empty disables it
	Textfile string `yaml:"textfile"`
}

// Load reads configuration from file or returns defaults, then applies
// environment overrides. A .env file in the working directory is loaded
// first so PEXELS_API_KEY can live there during local runs.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case !os.IsNotExist(err):
			return nil, err
		}
	}

	loadDotEnv()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0600)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	var errs []error
	if c.Narration.WPM < MinWPM || c.Narration.WPM > MaxWPM {
		errs = append(errs, fmt.Errorf("narration.wpm must be between %d and %d, got %d", MinWPM, MaxWPM, c.Narration.WPM))
	}
	if c.Narration.MinSeconds < 1 {
		errs = append(errs, fmt.Errorf("narration.min_seconds must be positive, got %d", c.Narration.MinSeconds))
	}
	if c.Keywords.Count < 1 {
		errs = append(errs, fmt.Errorf("keywords.count must be positive, got %d", c.Keywords.Count))
	}
	if c.Pexels.PerPage < 1 || c.Pexels.PerPage > 80 {
		errs = append(errs, fmt.Errorf("pexels.per_page must be between 1 and 80, got %d", c.Pexels.PerPage))
	}
	if c.Pexels.Timeout <= 0 {
		errs = append(errs, errors.New("pexels.timeout must be positive"))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if c.Output.Width <= 0 || c.Output.Height <= 0 {
		errs = append(errs, fmt.Errorf("output canvas must be positive, got %dx%d", c.Output.Width, c.Output.Height))
	}
	if c.Output.FPS <= 0 {
		errs = append(errs, fmt.Errorf("output.fps must be positive, got %d", c.Output.FPS))
	}
	return errors.Join(errs...)
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		TempDir: os.TempDir(),
		Narration: NarrationConfig{
			WPM:        150,
			MinSeconds: 2,
		},
		Keywords: KeywordsConfig{
			Count:    3,
			Model:    "pt_core_news_sm",
			ModelDir: defaultModelDir(),
		},
		Pexels: PexelsConfig{
			BaseURL:         "https://api.pexels.com",
			PerPage:         1,
			HDOnly:          true,
			Timeout:         20 * time.Second,
			RequestsPerHour: 200,
			Burst:           200,
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "medium",
			CRF:        23,
		},
		Output: OutputConfig{
			Path:   filepath.Join(os.TempDir(), OutputFileName),
			Width:  1920,
			Height: 1080,
			FPS:    24,
		},
	}
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.Pexels.APIKey = key
	}
	if out := os.Getenv(EnvOutput); out != "" {
		c.Output.Path = out
	}
	if dir := os.Getenv(EnvTempDir); dir != "" {
		c.TempDir = dir
	}
}

// loadDotEnv reads ./.env without overriding variables already set
func loadDotEnv() {
	if os.Getenv(EnvAPIKey) != "" {
		return
	}
	_ = godotenv.Load()
}

func defaultModelDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "scriptreel", "models")
	}
	return filepath.Join(os.TempDir(), "scriptreel", "models")
}

func findConfigFile() string {
	candidates := []string{
		"./scriptreel.yaml",
		"./config.yaml",
		"./config.yml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".scriptreel", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return Default()
}
