package media

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"

	"github.com/oratio-labs/oratio-core/internal/config"
)

var audioExtensions = map[string]bool{
	"wav": true,
	"mp3": true,
	"m4a": true,
}

var videoExtensions = map[string]bool{
	"mp4":  true,
	"mov":  true,
	"webm": true,
	"avi":  true,
}

// Normalizer converts arbitrary submissions into canonical audio by
// shelling out to the configured transcoding utility.
type Normalizer struct {
	cfg     config.MediaConfig
	ffmpeg  []string
	ffprobe []string
	log     *slog.Logger
}

func NewNormalizer(cfg config.MediaConfig, log *slog.Logger) (*Normalizer, error) {
	parser := shellwords.NewParser()
	ffmpeg, err := parser.Parse(cfg.FFmpegCommand)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}
	if len(ffmpeg) == 0 {
		return nil, fmt.Errorf("ffmpeg command is empty")
	}
	ffprobe, err := parser.Parse(cfg.FFprobeCommand)
	if err != nil {
		return nil, fmt.Errorf("parse ffprobe command: %w", err)
	}
	if len(ffprobe) == 0 {
		return nil, fmt.Errorf("ffprobe command is empty")
	}
	return &Normalizer{cfg: cfg, ffmpeg: ffmpeg, ffprobe: ffprobe, log: log}, nil
}

// Normalize validates the extension, transcodes the submission to mono
// 16kHz s16le wav, and loads the PCM payload into memory. Video inputs get
// a larger wall-clock budget since demuxing is heavier; the video stream is
// discarded either way. The caller owns Cleanup on the returned audio.
func (n *Normalizer) Normalize(ctx context.Context, raw []byte, extension string) (*CanonicalAudio, error) {
	ext := normalizeExtension(extension)
	isVideo := videoExtensions[ext]
	if !audioExtensions[ext] && !isVideo {
		return nil, fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, extension)
	}

	tempDir, err := os.MkdirTemp("", "oratio_media_*")
	if err != nil {
		return nil, fmt.Errorf("%w: temp dir: %v", ErrTranscode, err)
	}
	ok := false
	defer func() {
		if !ok {
			_ = os.RemoveAll(tempDir)
		}
	}()

	inputPath := filepath.Join(tempDir, "input."+ext)
	if err := os.WriteFile(inputPath, raw, 0o600); err != nil {
		return nil, fmt.Errorf("%w: write input: %v", ErrTranscode, err)
	}
	canonicalPath := filepath.Join(tempDir, "canonical.wav")

	budget := time.Duration(n.cfg.AudioTimeoutMS) * time.Millisecond
	if isVideo {
		budget = time.Duration(n.cfg.VideoTimeoutMS) * time.Millisecond
	}
	runCtx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	args := append([]string{}, n.ffmpeg[1:]...)
	args = append(args,
		"-y",
		"-i", inputPath,
		"-vn",
		"-ac", strconv.Itoa(n.cfg.Channels),
		"-ar", strconv.Itoa(n.cfg.SampleRate),
		"-acodec", "pcm_s16le",
		canonicalPath,
	)
	cmd := exec.CommandContext(runCtx, n.ffmpeg[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: timed out after %s", ErrTranscode, budget)
		}
		return nil, fmt.Errorf("%w: %v: %s", ErrTranscode, err, tail(stderr.Bytes()))
	}
	n.log.Debug("media normalized",
		slog.String("extension", ext),
		slog.Bool("video", isVideo),
		slog.Duration("elapsed", time.Since(start)))

	pcm, err := loadPCM(canonicalPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTranscode, err)
	}

	ok = true
	return &CanonicalAudio{
		PCM:        pcm,
		SampleRate: n.cfg.SampleRate,
		Channels:   n.cfg.Channels,
		path:       canonicalPath,
		tempDir:    tempDir,
	}, nil
}

func normalizeExtension(extension string) string {
	ext := extension
	for len(ext) > 0 && ext[0] == '.' {
		ext = ext[1:]
	}
	out := make([]byte, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}

// loadPCM decodes the canonical wav into raw little-endian s16 bytes.
func loadPCM(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open canonical wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode canonical wav: %w", err)
	}
	pcm := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(sample)))
	}
	return pcm, nil
}

func tail(out []byte) []byte {
	const max = 512
	if len(out) > max {
		return out[len(out)-max:]
	}
	return out
}
