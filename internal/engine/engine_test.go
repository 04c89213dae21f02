package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ivlev/frames2osb/internal/chunkstore"
	"github.com/ivlev/frames2osb/internal/config"
	"github.com/ivlev/frames2osb/internal/decompose"
	"github.com/ivlev/frames2osb/internal/source"
)

// memSource serves flat frames whose gray level encodes the frame index.
type memSource struct {
	w, h   int
	levels []uint8
	fail   int
}

func newMemSource(n int) *memSource {
	levels := make([]uint8, n)
	for i := range levels {
		levels[i] = uint8(i * 20)
	}
	return &memSource{w: 64, h: 48, levels: levels, fail: -1}
}

func (s *memSource) FrameCount() int { return len(s.levels) }

func (s *memSource) GetFrameDimensions(int) (int, int, error) { return s.w, s.h, nil }

func (s *memSource) RenderFrame(i int) (image.Image, error) {
	if i == s.fail {
		return nil, fmt.Errorf("corrupt frame")
	}
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	c := color.RGBA{R: s.levels[i], G: s.levels[i], B: s.levels[i], A: 255}
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img, nil
}

func (s *memSource) Close() error { return nil }

func TestPartition(t *testing.T) {
	tests := []struct {
		n, shards int
		want      []int
	}{
		{10, 3, []int{3, 3, 4}},
		{10, 1, []int{10}},
		{9, 3, []int{3, 3, 3}},
		{3, 8, []int{1, 1, 1}},
		{7, 2, []int{3, 4}},
	}
	for _, tt := range tests {
		spans, err := Partition(tt.n, tt.shards)
		if err != nil {
			t.Fatalf("Partition(%d, %d) failed: %v", tt.n, tt.shards, err)
		}
		if len(spans) != len(tt.want) {
			t.Fatalf("Partition(%d, %d) = %v, want sizes %v", tt.n, tt.shards, spans, tt.want)
		}
		next := 0
		for i, s := range spans {
			if s.Start != next || s.Len() != tt.want[i] {
				t.Errorf("Partition(%d, %d)[%d] = %+v, want start %d len %d", tt.n, tt.shards, i, s, next, tt.want[i])
			}
			next = s.End
		}
		if next != tt.n {
			t.Errorf("Partition(%d, %d) covers %d frames", tt.n, tt.shards, next)
		}
	}

	for _, bad := range [][2]int{{0, 3}, {10, 0}, {10, -1}} {
		if _, err := Partition(bad[0], bad[1]); !errors.Is(err, config.ErrInvalidConfiguration) {
			t.Errorf("Partition(%d, %d) error = %v, want ErrInvalidConfiguration", bad[0], bad[1], err)
		}
	}
}

func newExtractor(t *testing.T, src source.Source, workers int) *Extractor {
	t.Helper()
	w, h, _ := src.GetFrameDimensions(0)
	return &Extractor{
		Source:     src,
		Decomposer: decompose.QuadTree{Quality: 3},
		Canvas:     source.CanvasFor(w, h),
		Dir:        t.TempDir(),
		Workers:    workers,
	}
}

func TestExtractorShardOrder(t *testing.T) {
	ex := newExtractor(t, newMemSource(10), 3)
	spans, err := Partition(10, 3)
	if err != nil {
		t.Fatal(err)
	}

	ticks := 0
	shards, err := ex.Run(context.Background(), spans, func(n int) { ticks += n })
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if ticks != 10 {
		t.Errorf("progress ticks = %d, want 10", ticks)
	}

	m := &chunkstore.Manifest{Method: config.MethodQuadTree, Param: 3, Frames: 10, Shards: shards}
	if err := chunkstore.WriteManifest(ex.Dir, m); err != nil {
		t.Fatal(err)
	}
	m, err = chunkstore.ReadManifest(ex.Dir)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	for i, want := range []int{3, 3, 4} {
		if m.Shards[i].Count != want {
			t.Errorf("shard %d holds %d frames, want %d", i, m.Shards[i].Count, want)
		}
	}

	var offsets []int
	err = chunkstore.Each(context.Background(), ex.Dir, m, func(f decompose.Frame) error {
		offsets = append(offsets, f.Offset)
		if got, want := f.Root.Mean[0], f.Offset*20; got != want {
			t.Errorf("frame %d mean = %d, want %d", f.Offset, got, want)
		}
		if !f.Root.Final {
			t.Errorf("flat frame %d was subdivided", f.Offset)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for i, off := range offsets {
		if off != i {
			t.Fatalf("offsets = %v, want 0..9 in order", offsets)
		}
	}
}

func TestExtractorReportsFailingShard(t *testing.T) {
	src := newMemSource(10)
	src.fail = 5
	ex := newExtractor(t, src, 2)
	spans, _ := Partition(10, 3)

	_, err := ex.Run(context.Background(), spans, nil)
	if !errors.Is(err, ErrExtractionWorker) {
		t.Fatalf("Run() error = %v, want ErrExtractionWorker", err)
	}
	var se *ShardError
	if !errors.As(err, &se) {
		t.Fatalf("Run() error %T is not a *ShardError", err)
	}
	if se.Shard != 1 || se.Frame != 5 {
		t.Errorf("ShardError = shard %d frame %d, want shard 1 frame 5", se.Shard, se.Frame)
	}

	if _, err := chunkstore.ReadManifest(ex.Dir); !errors.Is(err, chunkstore.ErrIntermediateStorage) {
		t.Errorf("ReadManifest after failure: error = %v", err)
	}
}

func TestExtractorCancelled(t *testing.T) {
	ex := newExtractor(t, newMemSource(4), 1)
	spans, _ := Partition(4, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ex.Run(ctx, spans, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Quality = 2
	cfg.DataDir = filepath.Join(dir, "datas")
	cfg.Output = filepath.Join(dir, "out.osb")
	cfg.Splits = 3
	cfg.Workers = 2
	cfg.ShowProgress = false
	return cfg
}

func TestProjectRun(t *testing.T) {
	cfg := testConfig(t)
	if err := NewProject(cfg, newMemSource(6)).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	first, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	out := string(first)
	if !strings.HasPrefix(out, "[Events]\n") {
		t.Errorf("output does not start with [Events]:\n%s", out)
	}
	// 64x48 frames scale to a 640x480 canvas; the root is the only object.
	if !strings.Contains(out, `Sprite,Background,Centre,"res/dot.png",320,240`) {
		t.Errorf("root sprite missing:\n%s", out)
	}
	if !strings.Contains(out, " V,0,0,,641,481\n") {
		t.Errorf("setup scale missing:\n%s", out)
	}
	// Gray 20 rounds to 0.1 at 30 fps, frame 1 lands on 33ms.
	if !strings.Contains(out, " F,0,33,,0.1\n") {
		t.Errorf("fade for frame 1 missing:\n%s", out)
	}

	cfg.OnlyGenerate = true
	if err := NewProject(cfg, nil).Run(context.Background()); err != nil {
		t.Fatalf("only-generate Run failed: %v", err)
	}
	second, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Error("regenerating from chunks changed the storyboard")
	}
}

func TestProjectRunErrors(t *testing.T) {
	t.Run("no frames", func(t *testing.T) {
		err := NewProject(testConfig(t), newMemSource(0)).Run(context.Background())
		if !errors.Is(err, config.ErrInvalidConfiguration) {
			t.Errorf("error = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("invalid quality", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Quality = 9
		if err := NewProject(cfg, newMemSource(3)).Run(context.Background()); !errors.Is(err, config.ErrInvalidConfiguration) {
			t.Errorf("error = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("only generate without chunks", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.OnlyGenerate = true
		if err := NewProject(cfg, nil).Run(context.Background()); !errors.Is(err, chunkstore.ErrIntermediateStorage) {
			t.Errorf("error = %v, want ErrIntermediateStorage", err)
		}
	})

	t.Run("only generate with other colour mode", func(t *testing.T) {
		cfg := testConfig(t)
		if err := NewProject(cfg, newMemSource(3)).Run(context.Background()); err != nil {
			t.Fatal(err)
		}
		cfg.OnlyGenerate = true
		cfg.UseRGB = true
		if err := NewProject(cfg, nil).Run(context.Background()); !errors.Is(err, config.ErrInvalidConfiguration) {
			t.Errorf("error = %v, want ErrInvalidConfiguration", err)
		}
	})

	t.Run("failing frame", func(t *testing.T) {
		src := newMemSource(6)
		src.fail = 2
		err := NewProject(testConfig(t), src).Run(context.Background())
		if !errors.Is(err, ErrExtractionWorker) {
			t.Errorf("error = %v, want ErrExtractionWorker", err)
		}
	})
}

func TestProjectRunPixels(t *testing.T) {
	cfg := testConfig(t)
	cfg.Method = config.MethodPixels
	cfg.PixelSize = 80
	if err := NewProject(cfg, newMemSource(2)).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	// 640/80 x 480/80 cells.
	if got := strings.Count(string(data), "Sprite,"); got != 48 {
		t.Errorf("got %d sprites, want 48", got)
	}
}

func TestProjectRunPixelsSingleCell(t *testing.T) {
	cfg := testConfig(t)
	cfg.Method = config.MethodPixels
	cfg.PixelSize = 400
	src := newMemSource(3)
	src.w, src.h = 36, 48 // 360x480 canvas

	if err := NewProject(cfg, src).Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(data), "Sprite,"); got != 1 {
		t.Errorf("got %d sprites, want 1", got)
	}
}

func TestProjectRunPixelsEmptyGrid(t *testing.T) {
	cfg := testConfig(t)
	cfg.Method = config.MethodPixels
	cfg.PixelSize = 500

	err := NewProject(cfg, newMemSource(3)).Run(context.Background())
	if !errors.Is(err, config.ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want ErrInvalidConfiguration", err)
	}
	if errors.Is(err, ErrExtractionWorker) {
		t.Error("empty grid reached the extraction workers")
	}
	if _, err := os.Stat(cfg.DataDir); !os.IsNotExist(err) {
		t.Errorf("data dir touched before validation: %v", err)
	}
}
