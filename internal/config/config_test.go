package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Media.WindowSeconds != 30 {
		t.Fatalf("expected default window seconds 30, got %v", cfg.Media.WindowSeconds)
	}
	if cfg.Media.SampleRate != 16000 || cfg.Media.Channels != 1 {
		t.Fatalf("expected canonical 16kHz mono defaults, got %d/%d", cfg.Media.SampleRate, cfg.Media.Channels)
	}
	if cfg.Recognizer.Mode != "mock" {
		t.Fatalf("expected default recognizer mode mock, got %q", cfg.Recognizer.Mode)
	}
	if cfg.Media.VideoTimeoutMS <= cfg.Media.AudioTimeoutMS {
		t.Fatalf("video budget should exceed audio budget: %d vs %d", cfg.Media.VideoTimeoutMS, cfg.Media.AudioTimeoutMS)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ORATIO_MEDIA_FFMPEG_COMMAND", "nice -n10 ffmpeg")
	t.Setenv("ORATIO_MEDIA_WINDOW_SECONDS", "15")
	t.Setenv("ORATIO_MEDIA_VIDEO_TIMEOUT_MS", "240000")
	t.Setenv("ORATIO_RECOGNIZER_MODE", "http")
	t.Setenv("ORATIO_RECOGNIZER_ENDPOINT", "http://asr:9000/recognize")
	t.Setenv("ORATIO_RECOGNIZER_LANGUAGE", "en-GB")
	t.Setenv("ORATIO_RECOGNIZER_CONCURRENCY", "8")
	t.Setenv("ORATIO_HISTORY_PATH", "./tmp.db")
	t.Setenv("ORATIO_HISTORY_RETENTION_MODE", "persistent")
	t.Setenv("ORATIO_HISTORY_RETENTION_DAYS", "7")
	t.Setenv("ORATIO_HISTORY_MAX_RECORDS", "123")
	t.Setenv("ORATIO_BUS_ENABLED", "true")
	t.Setenv("ORATIO_BUS_SERVERS", "nats://one:4222, nats://two:4222")
	t.Setenv("ORATIO_BUS_EMBEDDED", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Media.FFmpegCommand != "nice -n10 ffmpeg" {
		t.Fatalf("expected ffmpeg command override, got %q", cfg.Media.FFmpegCommand)
	}
	if cfg.Media.WindowSeconds != 15 {
		t.Fatalf("expected window seconds override, got %v", cfg.Media.WindowSeconds)
	}
	if cfg.Recognizer.Mode != "http" || cfg.Recognizer.Endpoint != "http://asr:9000/recognize" {
		t.Fatalf("expected recognizer overrides, got %q %q", cfg.Recognizer.Mode, cfg.Recognizer.Endpoint)
	}
	if cfg.Recognizer.Language != "en-GB" {
		t.Fatalf("expected language override, got %q", cfg.Recognizer.Language)
	}
	if cfg.Recognizer.Concurrency != 8 {
		t.Fatalf("expected concurrency 8, got %d", cfg.Recognizer.Concurrency)
	}
	if cfg.History.Path != "./tmp.db" || cfg.History.RetentionDays != 7 || cfg.History.MaxRecords != 123 {
		t.Fatalf("expected history overrides, got %+v", cfg.History)
	}
	if !cfg.Bus.Enabled || cfg.Bus.Embedded {
		t.Fatalf("expected bus enabled external mode")
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
}

func TestValidateRejectsBadRecognizer(t *testing.T) {
	t.Setenv("ORATIO_RECOGNIZER_MODE", "http")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for http mode without endpoint")
	}
}

func TestValidateRejectsInvertedTimeouts(t *testing.T) {
	t.Setenv("ORATIO_MEDIA_VIDEO_TIMEOUT_MS", "1000")

	if _, err := Load(""); err == nil {
		t.Fatal("expected error when video budget is below audio budget")
	}
}
