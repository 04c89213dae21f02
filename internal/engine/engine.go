// Package engine runs the two conversion phases: parallel extraction of frames
// into chunk files, then sequential synthesis of the storyboard.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ivlev/frames2osb/internal/chunkstore"
	"github.com/ivlev/frames2osb/internal/config"
	"github.com/ivlev/frames2osb/internal/decompose"
	"github.com/ivlev/frames2osb/internal/logger"
	"github.com/ivlev/frames2osb/internal/progress"
	"github.com/ivlev/frames2osb/internal/source"
	"github.com/ivlev/frames2osb/internal/storyboard"
	"github.com/ivlev/frames2osb/internal/system"
	"github.com/ivlev/frames2osb/internal/timeline"
)

var log = logger.Log

type Project struct {
	Config *config.Config
	// Source may be nil when Config.OnlyGenerate is set.
	Source source.Source
}

func NewProject(cfg *config.Config, src source.Source) *Project {
	return &Project{
		Config: cfg,
		Source: src,
	}
}

// Run extracts the frames (unless only generating) and writes the storyboard
// to Config.Output.
func (p *Project) Run(ctx context.Context) error {
	startTime := time.Now()
	cfg := p.Config

	if err := cfg.Validate(); err != nil {
		return err
	}
	dec, err := decompose.NewDecomposer(cfg.Method, cfg.Param())
	if err != nil {
		return fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}

	var m *chunkstore.Manifest
	var extractTime time.Duration
	if cfg.OnlyGenerate {
		m, err = p.loadManifest()
	} else {
		extractStart := time.Now()
		m, err = p.extract(ctx, dec)
		extractTime = time.Since(extractStart)
	}
	if err != nil {
		return err
	}

	synthStart := time.Now()
	sb, err := p.synthesize(ctx, dec, m)
	if err != nil {
		return err
	}
	if err := storyboard.WriteFile(cfg.Output, sb); err != nil {
		return err
	}

	log.WithFields(logrus.Fields{
		"frames":   m.Frames,
		"objects":  sb.Len(),
		"commands": sb.CommandCount(),
	}).Infof("storyboard written to %s", cfg.Output)
	log.Debugf("extraction %.2fs, synthesis %.2fs, total %.2fs",
		extractTime.Seconds(), time.Since(synthStart).Seconds(), time.Since(startTime).Seconds())
	return nil
}

func (p *Project) extract(ctx context.Context, dec decompose.Decomposer) (*chunkstore.Manifest, error) {
	cfg := p.Config
	if p.Source == nil {
		return nil, errors.New("no frame source")
	}

	n := p.Source.FrameCount()
	if n == 0 {
		return nil, fmt.Errorf("%w: no frames found in %s", config.ErrInvalidConfiguration, cfg.FramesDir)
	}
	spans, err := Partition(n, cfg.Splits)
	if err != nil {
		return nil, err
	}
	srcW, srcH, err := p.Source.GetFrameDimensions(0)
	if err != nil {
		return nil, err
	}
	canvas := source.CanvasFor(srcW, srcH)
	if sw, sh := dec.SampleSize(canvas.W, canvas.H); sw < 1 || sh < 1 {
		return nil, fmt.Errorf("%w: %s parameter %d leaves no samples on a %dx%d canvas",
			config.ErrInvalidConfiguration, cfg.Method, cfg.Param(), canvas.W, canvas.H)
	}

	log.Infof("extracting %d frames (%dx%d, canvas %dx%d) into %d shards with %d workers",
		n, srcW, srcH, canvas.W, canvas.H, len(spans), cfg.Workers)
	system.LogMemory("extract")

	if err := chunkstore.Reset(cfg.DataDir); err != nil {
		return nil, err
	}

	bar := p.bar(n, "Extracting")
	ex := &Extractor{
		Source:     p.Source,
		Decomposer: dec,
		Canvas:     canvas,
		UseRGB:     cfg.UseRGB,
		Dir:        cfg.DataDir,
		Workers:    cfg.Workers,
	}
	shards, err := ex.Run(ctx, spans, bar.Add)
	if err != nil {
		return nil, err
	}
	bar.Describe(fmt.Sprintf("Extracted %d shards", len(shards)))
	bar.Finish()
	st := system.FrameStats()
	log.Debugf("frame canvases: %d allocated, %d reused", st.Allocated, st.Reused)

	m := &chunkstore.Manifest{
		Method:  cfg.Method,
		Param:   cfg.Param(),
		UseRGB:  cfg.UseRGB,
		CanvasW: canvas.W,
		CanvasH: canvas.H,
		XShift:  canvas.XShift,
		Frames:  n,
		Shards:  shards,
	}
	if err := chunkstore.WriteManifest(cfg.DataDir, m); err != nil {
		return nil, err
	}
	return m, nil
}

// loadManifest reuses the chunks of an earlier extraction. The quality may be
// lowered at this point; the method and colour mode must match.
func (p *Project) loadManifest() (*chunkstore.Manifest, error) {
	cfg := p.Config
	m, err := chunkstore.ReadManifest(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if m.Method != cfg.Method {
		return nil, fmt.Errorf("%w: %s was extracted with method %s, not %s",
			config.ErrInvalidConfiguration, cfg.DataDir, m.Method, cfg.Method)
	}
	if m.UseRGB != cfg.UseRGB {
		return nil, fmt.Errorf("%w: %s was extracted with use_rgb=%t", config.ErrInvalidConfiguration, cfg.DataDir, m.UseRGB)
	}
	if m.Param != cfg.Param() {
		log.Warnf("%s was extracted with parameter %d, generating with %d", cfg.DataDir, m.Param, cfg.Param())
	}
	log.Infof("generating from %d frames in %s", m.Frames, cfg.DataDir)
	return m, nil
}

func (p *Project) synthesize(ctx context.Context, dec decompose.Decomposer, m *chunkstore.Manifest) (*storyboard.Storyboard, error) {
	cfg := p.Config
	syn, err := timeline.New(timeline.Options{
		FPS:         cfg.FPS,
		MusicOffset: cfg.MusicOffset,
		Precision:   cfg.Precision,
		UseRGB:      cfg.UseRGB,
		Cutoff:      dec.Cutoff(),
		XShift:      m.XShift,
		Sprite:      cfg.Sprite,
		Layer:       storyboard.LayerBackground,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfiguration, err)
	}

	bar := p.bar(m.Frames, "Generating")
	err = chunkstore.Each(ctx, cfg.DataDir, m, func(f decompose.Frame) error {
		if err := syn.Add(f); err != nil {
			return err
		}
		bar.Add(1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	bar.Describe(fmt.Sprintf("Generated %d frames", syn.Frames()))
	bar.Finish()
	system.LogMemory("synthesize")

	return syn.Storyboard(), nil
}

func (p *Project) bar(max int, desc string) *progress.Bar {
	if p.Config.ShowProgress {
		return progress.New(max, desc)
	}
	return progress.Silent(max)
}
