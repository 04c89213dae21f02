package source

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var frameExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// ImageSource reads frames from a directory of numbered image files, e.g.
// 001.jpg or frame_0001.png. Frames are ordered by that number.
type ImageSource struct {
	paths []string
}

func NewImageSource(dir string) (*ImageSource, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		n    int
		path string
	}
	var frames []numbered
	for _, entry := range entries {
		if entry.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}
		n, err := FrameNumber(entry.Name())
		if err != nil {
			return nil, err
		}
		frames = append(frames, numbered{n: n, path: filepath.Join(dir, entry.Name())})
	}

	sort.SliceStable(frames, func(i, j int) bool {
		if frames[i].n != frames[j].n {
			return frames[i].n < frames[j].n
		}
		return frames[i].path < frames[j].path
	})

	paths := make([]string, len(frames))
	for i, f := range frames {
		paths[i] = f.path
	}
	return &ImageSource{paths: paths}, nil
}

// FrameNumber extracts the trailing number of a frame file name.
func FrameNumber(name string) (int, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	end := len(stem)
	start := end
	for start > 0 && stem[start-1] >= '0' && stem[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0, fmt.Errorf("frame file %q has no frame number", name)
	}
	return strconv.Atoi(stem[start:end])
}

func (s *ImageSource) FrameCount() int {
	return len(s.paths)
}

// Path returns the file backing frame index.
func (s *ImageSource) Path(index int) string {
	return s.paths[index]
}

func (s *ImageSource) GetFrameDimensions(index int) (int, int, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) RenderFrame(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) Close() error {
	return nil
}
