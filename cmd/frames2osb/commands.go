package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ivlev/frames2osb/internal/config"
	"github.com/ivlev/frames2osb/internal/logger"
	"github.com/ivlev/frames2osb/internal/video"
)

// runner executes the conversion pipeline for a resolved configuration.
type runner func(ctx context.Context, cfg *config.Config) error

type rootOptions struct {
	configPath string
	saveConfig string
	verbose    bool
}

func newRootCmd(run runner) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "frames2osb",
		Short:         "Convert video frames into an osu! storyboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.SetVerbose(opts.verbose)
		},
	}

	def := config.Default()
	pf := root.PersistentFlags()
	pf.Int("jobs", def.Workers, "Number of extraction workers")
	pf.Int("splits", def.Splits, "Number of frame shards to extract")
	pf.Float64("fps", def.FPS, "Frame rate of the frame sequence")
	pf.Int("precision", def.Precision, "Alpha rounding digits, or the colour delta divisor with --use-rgb")
	pf.Int("offset", def.MusicOffset, "Music offset in milliseconds")
	pf.Bool("only-generate", false, "Skip extraction and generate from the existing data directory")
	pf.Bool("use-rgb", false, "Use RGB colours instead of alpha values")
	pf.String("frames", def.FramesDir, "Directory of numbered frame images")
	pf.String("data", def.DataDir, "Directory for intermediate chunk files")
	pf.String("sprite", def.Sprite, "Sprite path used by every storyboard object")
	pf.Bool("no-progress", false, "Disable progress bars")
	pf.StringVar(&opts.configPath, "config", "", "YAML config file")
	pf.StringVar(&opts.saveConfig, "save-config", "", "Write the effective configuration to this YAML file")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Debug logging")

	root.AddCommand(
		newMethodCmd(config.MethodQuadTree, "quality", "Generate a storyboard using the quadtree method", opts, run),
		newMethodCmd(config.MethodPixels, "size", "Generate a storyboard using the pixels method", opts, run),
		newConvertCmd(opts, run),
	)
	return root
}

func newMethodCmd(method, param, short string, opts *rootOptions, run runner) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <outfile> <%s>", method, param),
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}
			cfg.Method = method
			cfg.Output = args[0]
			if err := setParam(cfg, param, args[1]); err != nil {
				return err
			}
			return start(cmd.Context(), cfg, opts, run)
		},
	}
}

func newConvertCmd(opts *rootOptions, run runner) *cobra.Command {
	var (
		method string
		param  int
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "convert <video> [outfile]",
		Short: "Extract the frames of a video with ffmpeg and generate its storyboard",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(cmd, opts)
			if err != nil {
				return err
			}
			cfg.Method = method
			if cmd.Flags().Changed("param") {
				if err := setParam(cfg, "param", strconv.Itoa(param)); err != nil {
					return err
				}
			}
			cfg.Output = outputFor(args)
			cfg.OnlyGenerate = false
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			ff := video.New(cfg.FFmpegPath, cfg.FFprobePath)
			info, err := ff.Probe(ctx, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("fps") {
				cfg.FPS = info.FPS
			}
			log.Infof("video stream %dx%d @ %.3f fps, %.1fs", info.Width, info.Height, info.FPS, info.Duration)

			if _, err := ff.ExtractFrames(ctx, args[0], cfg.FramesDir, force); err != nil {
				return err
			}
			return start(ctx, cfg, opts, run)
		},
	}

	cmd.Flags().StringVar(&method, "method", config.MethodQuadTree, "Decomposition method: quadtree or pixels")
	cmd.Flags().IntVar(&param, "param", 0, "Quality (quadtree) or square size (pixels)")
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing frames directory")
	return cmd
}

// buildConfig layers explicitly set flags over the file and environment.
func buildConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("jobs") {
		cfg.Workers, _ = f.GetInt("jobs")
	}
	if f.Changed("splits") {
		cfg.Splits, _ = f.GetInt("splits")
	}
	if f.Changed("fps") {
		cfg.FPS, _ = f.GetFloat64("fps")
	}
	if f.Changed("precision") {
		cfg.Precision, _ = f.GetInt("precision")
	}
	if f.Changed("offset") {
		cfg.MusicOffset, _ = f.GetInt("offset")
	}
	if f.Changed("only-generate") {
		cfg.OnlyGenerate, _ = f.GetBool("only-generate")
	}
	if f.Changed("use-rgb") {
		cfg.UseRGB, _ = f.GetBool("use-rgb")
	}
	if f.Changed("frames") {
		cfg.FramesDir, _ = f.GetString("frames")
	}
	if f.Changed("data") {
		cfg.DataDir, _ = f.GetString("data")
	}
	if f.Changed("sprite") {
		cfg.Sprite, _ = f.GetString("sprite")
	}
	if noProgress, _ := f.GetBool("no-progress"); noProgress {
		cfg.ShowProgress = false
	}
	return cfg, nil
}

func setParam(cfg *config.Config, name, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", config.ErrInvalidConfiguration, name, value)
	}
	if cfg.Method == config.MethodPixels {
		cfg.PixelSize = n
	} else {
		cfg.Quality = n
	}
	return nil
}

func outputFor(args []string) string {
	if len(args) > 1 {
		return args[1]
	}
	base := filepath.Base(args[0])
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".osb"
}

func start(ctx context.Context, cfg *config.Config, opts *rootOptions, run runner) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if opts.saveConfig != "" {
		if err := config.WriteFile(opts.saveConfig, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		log.Infof("configuration saved to %s", opts.saveConfig)
	}
	return run(ctx, cfg)
}
