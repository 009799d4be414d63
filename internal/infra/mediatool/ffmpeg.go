package mediatool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// FFmpeg probes videos and renders thumbnails with the ffmpeg CLI tools.
type FFmpeg struct {
	FFmpegPath  string
	FFprobePath string
	// ukuran thumbnail maksimum, aspect ratio dipertahankan
	ThumbWidth  int
	ThumbHeight int
}

// New locates ffmpeg and ffprobe in PATH.
func New() (*FFmpeg, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	ffprobePath, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &FFmpeg{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath, ThumbWidth: 320, ThumbHeight: 180}, nil
}

// Duration returns the container duration in seconds.
func (f *FFmpeg) Duration(ctx context.Context, videoPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		videoPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseDuration(out)
}

func parseDuration(out []byte) (float64, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe JSON: %w", err)
	}
	if probe.Format.Duration == "" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	d, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("bad duration %q: %w", probe.Format.Duration, err)
	}
	// kolom duration DECIMAL(.,2)
	return float64(int64(d*100+0.5)) / 100, nil
}

// Thumbnail writes the first frame of the video as a JPEG.
func (f *FFmpeg) Thumbnail(ctx context.Context, videoPath, outPath string) error {
	w, h := f.ThumbWidth, f.ThumbHeight
	if w <= 0 || h <= 0 {
		w, h = 320, 180
	}
	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-i", videoPath,
		"-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease", w, h),
		"-q:v", "3",
		"-y",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 300 {
			msg = msg[len(msg)-300:]
		}
		return fmt.Errorf("frame extraction failed: %w: %s", err, msg)
	}
	return nil
}
