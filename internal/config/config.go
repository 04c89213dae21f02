package config

import (
	"errors"
	"fmt"

	"github.com/ivlev/frames2osb/internal/system"
)

// ErrInvalidConfiguration is returned for any setting that fails validation.
var ErrInvalidConfiguration = errors.New("invalid configuration")

const (
	MethodQuadTree = "quadtree"
	MethodPixels   = "pixels"

	MinQuality = 1
	MaxQuality = 8
)

type Config struct {
	Method    string `yaml:"method"     env:"METHOD"`
	Quality   int    `yaml:"quality"    env:"QUALITY"`
	PixelSize int    `yaml:"pixel_size" env:"PIXEL_SIZE"`

	FramesDir string `yaml:"frames_dir" env:"FRAMES_DIR"`
	DataDir   string `yaml:"data_dir"   env:"DATA_DIR"`
	Output    string `yaml:"output"     env:"OUTPUT"`

	FPS          float64 `yaml:"fps"           env:"FPS"`
	MusicOffset  int     `yaml:"music_offset"  env:"MUSIC_OFFSET"`
	Precision    int     `yaml:"precision"     env:"PRECISION"`
	UseRGB       bool    `yaml:"use_rgb"       env:"USE_RGB"`
	Workers      int     `yaml:"workers"       env:"WORKERS"`
	Splits       int     `yaml:"splits"        env:"SPLITS"`
	OnlyGenerate bool    `yaml:"only_generate" env:"ONLY_GENERATE"`

	Sprite       string `yaml:"sprite"        env:"SPRITE"`
	ShowProgress bool   `yaml:"show_progress" env:"SHOW_PROGRESS"`

	FFmpegPath  string `yaml:"ffmpeg_path"  env:"FFMPEG_PATH"`
	FFprobePath string `yaml:"ffprobe_path" env:"FFPROBE_PATH"`
}

// Default returns the settings used when neither a file nor the environment
// overrides them.
func Default() *Config {
	return &Config{
		Method:       MethodQuadTree,
		Quality:      6,
		PixelSize:    8,
		FramesDir:    "frames",
		DataDir:      "datas",
		FPS:          30,
		Precision:    1,
		Workers:      system.DefaultWorkers(),
		Splits:       16,
		Sprite:       "res/dot.png",
		ShowProgress: true,
	}
}

// Param is the decomposition parameter for the selected method.
func (c *Config) Param() int {
	if c.Method == MethodPixels {
		return c.PixelSize
	}
	return c.Quality
}

func (c *Config) Validate() error {
	switch c.Method {
	case MethodQuadTree:
		if c.Quality < MinQuality || c.Quality > MaxQuality {
			return fmt.Errorf("%w: quality must be between %d and %d (inclusive), got %d",
				ErrInvalidConfiguration, MinQuality, MaxQuality, c.Quality)
		}
	case MethodPixels:
		if c.PixelSize < 1 {
			return fmt.Errorf("%w: pixel size must be >= 1, got %d", ErrInvalidConfiguration, c.PixelSize)
		}
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfiguration, c.Method)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("%w: fps must be > 0, got %g", ErrInvalidConfiguration, c.FPS)
	}
	if c.Precision < 0 {
		return fmt.Errorf("%w: precision must be >= 0, got %d", ErrInvalidConfiguration, c.Precision)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfiguration, c.Workers)
	}
	if c.Splits < 1 {
		return fmt.Errorf("%w: splits must be >= 1, got %d", ErrInvalidConfiguration, c.Splits)
	}
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is empty", ErrInvalidConfiguration)
	}
	if c.FramesDir == "" && !c.OnlyGenerate {
		return fmt.Errorf("%w: frames dir is empty", ErrInvalidConfiguration)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output filename is empty", ErrInvalidConfiguration)
	}
	return nil
}
