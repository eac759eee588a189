package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/keagan/scriptreel/internal/config"
	"github.com/keagan/scriptreel/internal/logging"
	"github.com/keagan/scriptreel/internal/metrics"
	"github.com/keagan/scriptreel/internal/nlp"
	"github.com/keagan/scriptreel/internal/pipeline"
	"github.com/keagan/scriptreel/internal/script"
	"github.com/keagan/scriptreel/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	verbose bool

	wpm        int
	outputPath string
	force      bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "scriptreel",
	Short: "scriptreel - narration script to stock-footage video",
	Long:  "Splits a narration script into scenes, finds a Pexels clip for each one and joins them into a single video.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./scriptreel.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	generateCmd.Flags().IntVar(&wpm, "wpm", 0, fmt.Sprintf("narration speed in words per minute (%d-%d, default from config)", config.MinWPM, config.MaxWPM))
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the video here instead of output.path")
	planCmd.Flags().IntVar(&wpm, "wpm", 0, "narration speed in words per minute (default from config)")
	configInitCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(configCmd)
}

var generateCmd = &cobra.Command{
	Use:   "generate [script file|-]",
	Short: "Generate a video from a narration script",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		rate, err := resolveWPM(cfg)
		if err != nil {
			return err
		}
		if outputPath != "" {
			cfg.Output.Path = outputPath
		}

		text, err := readScript(cmd, args)
		if err != nil {
			return err
		}

		pipe, err := pipeline.FromConfig(log.Logger, cfg, pipeline.NewLogReporter(logging.WithComponent("run")))
		if err != nil {
			return err
		}

		res, runErr := pipe.Run(cmd.Context(), text, rate)

		if cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				log.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("metrics not written")
			}
		}
		if runErr != nil {
			return runErr
		}

		fmt.Fprintln(cmd.OutOrStdout(), res.Output.Path)
		return nil
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [script file|-]",
	Short: "Show scenes, search queries and clip lengths without downloading",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		rate, err := resolveWPM(cfg)
		if err != nil {
			return err
		}
		text, err := readScript(cmd, args)
		if err != nil {
			return err
		}

		extractor := pipeline.NewKeywordExtractor(log.Logger, cfg)
		plans := pipeline.Plan(extractor, script.Estimator{MinSeconds: cfg.Narration.MinSeconds}, text, rate)

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCENE\tSECONDS\tQUERY\tTEXT")
		total := 0
		for _, p := range plans {
			total += p.Seconds
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\n", p.Index, p.Seconds, p.Query, preview(p.Text, 48))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		log.Info().
			Int("scenes", len(plans)).
			Str("duration", util.FormatDuration(time.Duration(total)*time.Second)).
			Msg("plan complete")
		return nil
	},
}

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Language model commands",
}

var modelInstallCmd = &cobra.Command{
	Use:   "install [name]",
	Short: "Install a bundled keyword model into the model directory",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())

		name := cfg.Keywords.Model
		if len(args) == 1 {
			name = args[0]
		}

		path, err := nlp.Install(cfg.Keywords.ModelDir, name)
		if err != nil {
			return fmt.Errorf("%w (available: %s)", err, strings.Join(nlp.Available(), ", "))
		}

		log.Info().Str("model", name).Str("path", path).Msg("model installed")
		return nil
	},
}

var modelListCmd = &cobra.Command{
	Use:   "list",
	Short: "List bundled keyword models",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		for _, name := range nlp.Available() {
			status := "bundled"
			if util.FileExists(nlp.ModelPath(cfg.Keywords.ModelDir, name)) {
				status = "installed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, status)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "./scriptreel.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("config written")
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *config.FromContext(cmd.Context())
		if cfg.Pexels.APIKey != "" {
			cfg.Pexels.APIKey = "********"
		}

		data, err := yaml.Marshal(&cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	modelCmd.AddCommand(modelInstallCmd)
	modelCmd.AddCommand(modelListCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

// resolveWPM picks the --wpm flag or the configured rate and bounds it
func resolveWPM(cfg *config.Config) (int, error) {
	rate := wpm
	if rate == 0 {
		rate = cfg.Narration.WPM
	}
	if rate < config.MinWPM || rate > config.MaxWPM {
		return 0, fmt.Errorf("--wpm must be between %d and %d, got %d", config.MinWPM, config.MaxWPM, rate)
	}
	return rate, nil
}

// readScript reads the script file named in args, or stdin for none or "-"
func readScript(cmd *cobra.Command, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(data), nil
}

func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n-3]) + "..."
}
