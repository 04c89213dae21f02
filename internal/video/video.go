// Package video probes source videos and splits them into numbered frame
// images with ffmpeg.
package video

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ivlev/frames2osb/internal/logger"
)

var log = logger.Log

// ErrNoVideoStream is returned when a file has no streams or no video stream.
var ErrNoVideoStream = errors.New("no video stream found")

// FramePattern names extracted frames so that a numeric sort recovers their order.
const FramePattern = "%05d.png"

type StreamInfo struct {
	Index    int
	Width    int
	Height   int
	FPS      float64
	Duration float64
}

type FFmpeg struct {
	ffmpeg  string
	ffprobe string
}

// New creates an adapter. Empty paths fall back to the binaries on PATH.
func New(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpeg: ffmpegPath, ffprobe: ffprobePath}
}

// Probe returns the first video stream of path.
func (f *FFmpeg) Probe(ctx context.Context, path string) (StreamInfo, error) {
	cmd := exec.CommandContext(ctx, f.ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return StreamInfo{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	info, err := parseProbe(out)
	if err != nil {
		return StreamInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	return info, nil
}

type probeResult struct {
	Streams []struct {
		Index        int    `json:"index"`
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		NbStreams int    `json:"nb_streams"`
		Duration  string `json:"duration"`
	} `json:"format"`
}

func parseProbe(data []byte) (StreamInfo, error) {
	var res probeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return StreamInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if res.Format.NbStreams == 0 || len(res.Streams) == 0 {
		return StreamInfo{}, fmt.Errorf("%w: file has no streams", ErrNoVideoStream)
	}

	for _, s := range res.Streams {
		if s.CodecType != "video" {
			continue
		}
		rate := s.AvgFrameRate
		if rate == "" || rate == "0/0" {
			rate = s.RFrameRate
		}
		fps, err := ParseFrameRate(rate)
		if err != nil {
			return StreamInfo{}, err
		}

		duration := s.Duration
		if duration == "" {
			duration = res.Format.Duration
		}
		secs, _ := strconv.ParseFloat(duration, 64)

		return StreamInfo{
			Index:    s.Index,
			Width:    s.Width,
			Height:   s.Height,
			FPS:      fps,
			Duration: secs,
		}, nil
	}
	return StreamInfo{}, ErrNoVideoStream
}

// ParseFrameRate parses ffprobe rates such as "30000/1001" or "25".
func ParseFrameRate(rate string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(rate), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", rate)
	}
	if !found {
		if n <= 0 {
			return 0, fmt.Errorf("invalid frame rate %q", rate)
		}
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 || n <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", rate)
	}
	return n / d, nil
}

// ExtractFrames writes every frame of videoPath into dir. A non-empty dir is
// only replaced when force is set.
func (f *FFmpeg) ExtractFrames(ctx context.Context, videoPath, dir string, force bool) (int, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return 0, fmt.Errorf("video file: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err == nil && len(entries) > 0 && !force {
		return 0, fmt.Errorf("frames directory %s already exists and is not empty (use --force to replace it)", dir)
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create %s: %w", dir, err)
	}

	cmd := exec.CommandContext(ctx, f.ffmpeg,
		"-v", "error",
		"-i", videoPath,
		filepath.Join(dir, FramePattern),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return 0, fmt.Errorf("ffmpeg extract frames: %w\n%s", err, string(out))
	}

	frames, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return 0, fmt.Errorf("glob frames: %w", err)
	}
	if len(frames) == 0 {
		return 0, fmt.Errorf("no frames extracted from %s", videoPath)
	}
	log.Infof("extracted %d frames into %s", len(frames), dir)
	return len(frames), nil
}
