package chunkstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/frames2osb/internal/decompose"
)

const (
	ManifestFile    = "manifest.yaml"
	ManifestVersion = "1"
)

// Manifest describes a completed extraction run. It is written last, so its
// presence means every listed shard was committed.
type Manifest struct {
	Version string      `yaml:"version"`
	Method  string      `yaml:"method"`
	Param   int         `yaml:"param"`
	UseRGB  bool        `yaml:"use_rgb"`
	CanvasW int         `yaml:"canvas_w"`
	CanvasH int         `yaml:"canvas_h"`
	XShift  float64     `yaml:"x_shift"`
	Frames  int         `yaml:"frames"`
	Shards  []ShardInfo `yaml:"shards"`
}

// ShardInfo is one committed chunk file and the frame range it holds.
type ShardInfo struct {
	Index int    `yaml:"index"`
	File  string `yaml:"file"`
	First int    `yaml:"first"`
	Count int    `yaml:"count"`
}

// WriteManifest commits m to dir.
func WriteManifest(dir string, m *Manifest) error {
	m.Version = ManifestVersion
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ManifestFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrIntermediateStorage, path, err)
	}
	return nil
}

// ReadManifest loads the manifest of dir and checks it against the chunk
// files actually present.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s not found; extraction did not complete", ErrIntermediateStorage, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrIntermediateStorage, path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrIntermediateStorage, path, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: %s has version %q, want %q", ErrIntermediateStorage, path, m.Version, ManifestVersion)
	}

	files, err := List(dir)
	if err != nil {
		return nil, err
	}
	if len(files) != len(m.Shards) {
		return nil, fmt.Errorf("%w: %s lists %d shards, found %d chunk files",
			ErrIntermediateStorage, dir, len(m.Shards), len(files))
	}

	next, total := 0, 0
	for i, s := range m.Shards {
		if s.Index != i || s.File != files[i] {
			return nil, fmt.Errorf("%w: shard %d: expected %s, found %s", ErrIntermediateStorage, i, s.File, files[i])
		}
		if s.First != next {
			return nil, fmt.Errorf("%w: shard %d starts at frame %d, want %d", ErrIntermediateStorage, i, s.First, next)
		}
		next += s.Count
		total += s.Count
	}
	if total != m.Frames {
		return nil, fmt.Errorf("%w: shards hold %d frames, manifest says %d", ErrIntermediateStorage, total, m.Frames)
	}

	return &m, nil
}

// Each reads the shards of m in order and hands every frame to fn.
func Each(ctx context.Context, dir string, m *Manifest, fn func(decompose.Frame) error) error {
	for _, s := range m.Shards {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, s.File)
		frames, err := ReadChunk(path)
		if err != nil {
			return err
		}
		if len(frames) != s.Count {
			return fmt.Errorf("%w: %s holds %d frames, manifest says %d", ErrIntermediateStorage, path, len(frames), s.Count)
		}

		for _, f := range frames {
			if err := fn(f); err != nil {
				return err
			}
		}
	}
	return nil
}
