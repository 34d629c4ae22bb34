package media

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/oratio-labs/oratio-core/internal/config"
)

func testMediaConfig() config.MediaConfig {
	cfg := config.Default().Media
	// Point at a binary that cannot exist so any accidental exec fails loudly.
	cfg.FFmpegCommand = "/nonexistent/ffmpeg"
	cfg.FFprobeCommand = "/nonexistent/ffprobe"
	return cfg
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestNormalizeRejectsUnknownExtension(t *testing.T) {
	n, err := NewNormalizer(testMediaConfig(), testLogger())
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	for _, ext := range []string{"exe", ".exe", "txt", "ogg", ""} {
		_, err := n.Normalize(context.Background(), []byte("payload"), ext)
		if !errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("extension %q: expected ErrUnsupportedFormat, got %v", ext, err)
		}
	}
}

func TestNormalizeAcceptsCaseInsensitiveExtensions(t *testing.T) {
	n, err := NewNormalizer(testMediaConfig(), testLogger())
	if err != nil {
		t.Fatalf("new normalizer: %v", err)
	}

	// These pass the format gate and then fail at the (nonexistent)
	// transcoder, which must surface as a transcode error, not a format one.
	for _, ext := range []string{"WAV", ".Mp4", "webm", "M4A"} {
		_, err := n.Normalize(context.Background(), []byte("payload"), ext)
		if errors.Is(err, ErrUnsupportedFormat) {
			t.Fatalf("extension %q: unexpectedly rejected at the format gate", ext)
		}
		if !errors.Is(err, ErrTranscode) {
			t.Fatalf("extension %q: expected ErrTranscode from missing utility, got %v", ext, err)
		}
	}
}

func TestNewNormalizerRejectsEmptyCommands(t *testing.T) {
	cfg := testMediaConfig()
	cfg.FFmpegCommand = "  "
	if _, err := NewNormalizer(cfg, testLogger()); err == nil {
		t.Fatal("expected error for blank ffmpeg command")
	}
}
