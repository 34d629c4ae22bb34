package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type HTTPConfig struct {
	Bind           string `yaml:"bind"`
	Port           int    `yaml:"port"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`
}

type Config struct {
	RuntimeName string           `yaml:"runtime_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Bus         BusConfig        `yaml:"bus"`
	Media       MediaConfig      `yaml:"media"`
	Recognizer  RecognizerConfig `yaml:"recognizer"`
	History     HistoryConfig    `yaml:"history"`
}

type BusConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Embedded       bool     `yaml:"embedded"`
	Port           int      `yaml:"port"`
	StoreDir       string   `yaml:"store_dir"`
	Servers        []string `yaml:"servers"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
	Token          string   `yaml:"token"`
	TLSInsecure    bool     `yaml:"tls_insecure"`
	ConnectTimeout int      `yaml:"connect_timeout_ms"`
}

// MediaConfig controls the external transcoding utility used to produce
// canonical mono 16kHz PCM audio from arbitrary submissions.
type MediaConfig struct {
	FFmpegCommand  string  `yaml:"ffmpeg_command"`
	FFprobeCommand string  `yaml:"ffprobe_command"`
	AudioTimeoutMS int     `yaml:"audio_timeout_ms"`
	VideoTimeoutMS int     `yaml:"video_timeout_ms"`
	ProbeTimeoutMS int     `yaml:"probe_timeout_ms"`
	WindowSeconds  float64 `yaml:"window_seconds"`
	SampleRate     int     `yaml:"sample_rate"`
	Channels       int     `yaml:"channels"`
}

type RecognizerConfig struct {
	Mode        string `yaml:"mode"` // mock, http
	Endpoint    string `yaml:"endpoint"`
	Token       string `yaml:"token"`
	Language    string `yaml:"language"`
	TimeoutMS   int    `yaml:"timeout_ms"`
	Concurrency int    `yaml:"concurrency"`
}

type HistoryConfig struct {
	Path          string `yaml:"path"`
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRecords    int    `yaml:"max_records"`
	VacuumOnStart bool   `yaml:"vacuum_on_start"`
}

func Default() Config {
	return Config{
		RuntimeName: "oratio-runtime",
		Environment: "development",
		HTTP: HTTPConfig{
			Bind:           "0.0.0.0",
			Port:           8080,
			MaxUploadBytes: 128 << 20,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPEndpoint: "",
			OTLPInsecure: true,
		},
		Bus: BusConfig{
			Enabled:        false,
			Embedded:       true,
			Port:           4222,
			StoreDir:       "./data/nats",
			Servers:        []string{"nats://localhost:4222"},
			ConnectTimeout: 2000,
		},
		Media: MediaConfig{
			FFmpegCommand:  "ffmpeg",
			FFprobeCommand: "ffprobe",
			AudioTimeoutMS: 30000,
			VideoTimeoutMS: 120000,
			ProbeTimeoutMS: 10000,
			WindowSeconds:  30,
			SampleRate:     16000,
			Channels:       1,
		},
		Recognizer: RecognizerConfig{
			Mode:        "mock",
			Language:    "en-US",
			TimeoutMS:   30000,
			Concurrency: 4,
		},
		History: HistoryConfig{
			Path:          "./data/oratio-assessments.db",
			RetentionMode: "persistent",
			RetentionDays: 90,
			MaxRecords:    50000,
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.RuntimeName, "ORATIO_RUNTIME_NAME")
	overrideString(&cfg.Environment, "ORATIO_RUNTIME_ENVIRONMENT")
	overrideString(&cfg.HTTP.Bind, "ORATIO_HTTP_BIND")
	overrideInt(&cfg.HTTP.Port, "ORATIO_HTTP_PORT")
	overrideInt64(&cfg.HTTP.MaxUploadBytes, "ORATIO_HTTP_MAX_UPLOAD_BYTES")
	overrideString(&cfg.Telemetry.LogLevel, "ORATIO_TELEMETRY_LOG_LEVEL")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "ORATIO_TELEMETRY_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "ORATIO_TELEMETRY_OTLP_INSECURE")
	overrideBool(&cfg.Bus.Enabled, "ORATIO_BUS_ENABLED")
	overrideBool(&cfg.Bus.Embedded, "ORATIO_BUS_EMBEDDED")
	overrideInt(&cfg.Bus.Port, "ORATIO_BUS_PORT")
	overrideString(&cfg.Bus.StoreDir, "ORATIO_BUS_STORE_DIR")
	overrideStringSlice(&cfg.Bus.Servers, "ORATIO_BUS_SERVERS")
	overrideString(&cfg.Bus.Username, "ORATIO_BUS_USERNAME")
	overrideString(&cfg.Bus.Password, "ORATIO_BUS_PASSWORD")
	overrideString(&cfg.Bus.Token, "ORATIO_BUS_TOKEN")
	overrideBool(&cfg.Bus.TLSInsecure, "ORATIO_BUS_TLS_INSECURE")
	overrideInt(&cfg.Bus.ConnectTimeout, "ORATIO_BUS_CONNECT_TIMEOUT_MS")
	overrideString(&cfg.Media.FFmpegCommand, "ORATIO_MEDIA_FFMPEG_COMMAND")
	overrideString(&cfg.Media.FFprobeCommand, "ORATIO_MEDIA_FFPROBE_COMMAND")
	overrideInt(&cfg.Media.AudioTimeoutMS, "ORATIO_MEDIA_AUDIO_TIMEOUT_MS")
	overrideInt(&cfg.Media.VideoTimeoutMS, "ORATIO_MEDIA_VIDEO_TIMEOUT_MS")
	overrideInt(&cfg.Media.ProbeTimeoutMS, "ORATIO_MEDIA_PROBE_TIMEOUT_MS")
	overrideFloat(&cfg.Media.WindowSeconds, "ORATIO_MEDIA_WINDOW_SECONDS")
	overrideInt(&cfg.Media.SampleRate, "ORATIO_MEDIA_SAMPLE_RATE")
	overrideInt(&cfg.Media.Channels, "ORATIO_MEDIA_CHANNELS")
	overrideString(&cfg.Recognizer.Mode, "ORATIO_RECOGNIZER_MODE")
	overrideString(&cfg.Recognizer.Endpoint, "ORATIO_RECOGNIZER_ENDPOINT")
	overrideString(&cfg.Recognizer.Token, "ORATIO_RECOGNIZER_TOKEN")
	overrideString(&cfg.Recognizer.Language, "ORATIO_RECOGNIZER_LANGUAGE")
	overrideInt(&cfg.Recognizer.TimeoutMS, "ORATIO_RECOGNIZER_TIMEOUT_MS")
	overrideInt(&cfg.Recognizer.Concurrency, "ORATIO_RECOGNIZER_CONCURRENCY")
	overrideString(&cfg.History.Path, "ORATIO_HISTORY_PATH")
	overrideString(&cfg.History.RetentionMode, "ORATIO_HISTORY_RETENTION_MODE")
	overrideInt(&cfg.History.RetentionDays, "ORATIO_HISTORY_RETENTION_DAYS")
	overrideInt(&cfg.History.MaxRecords, "ORATIO_HISTORY_MAX_RECORDS")
	overrideBool(&cfg.History.VacuumOnStart, "ORATIO_HISTORY_VACUUM_ON_START")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideInt64(target *int64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		parts := strings.Split(value, ",")
		var trimmed []string
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	if cfg.RuntimeName == "" {
		return errors.New("runtime_name must not be empty")
	}
	if cfg.HTTP.Port <= 0 || cfg.HTTP.Port > 65535 {
		return errors.New("http.port must be between 1 and 65535")
	}
	if cfg.HTTP.MaxUploadBytes <= 0 {
		return errors.New("http.max_upload_bytes must be positive")
	}
	if cfg.Bus.Enabled {
		if cfg.Bus.Embedded {
			if cfg.Bus.Port <= 0 || cfg.Bus.Port > 65535 {
				return errors.New("bus.port must be between 1 and 65535 when embedded mode is enabled")
			}
		} else if len(cfg.Bus.Servers) == 0 {
			return errors.New("bus.servers must not be empty when embedded mode is disabled")
		}
	}
	if cfg.Media.FFmpegCommand == "" {
		return errors.New("media.ffmpeg_command must not be empty")
	}
	if cfg.Media.FFprobeCommand == "" {
		return errors.New("media.ffprobe_command must not be empty")
	}
	if cfg.Media.AudioTimeoutMS <= 0 || cfg.Media.VideoTimeoutMS <= 0 || cfg.Media.ProbeTimeoutMS <= 0 {
		return errors.New("media timeouts must be positive")
	}
	if cfg.Media.VideoTimeoutMS < cfg.Media.AudioTimeoutMS {
		return errors.New("media.video_timeout_ms must not be smaller than audio_timeout_ms")
	}
	if cfg.Media.WindowSeconds <= 0 {
		return errors.New("media.window_seconds must be positive")
	}
	if cfg.Media.SampleRate <= 0 {
		return errors.New("media.sample_rate must be positive")
	}
	if cfg.Media.Channels <= 0 {
		return errors.New("media.channels must be positive")
	}
	switch cfg.Recognizer.Mode {
	case "mock", "http":
	default:
		return errors.New("recognizer.mode must be one of mock|http")
	}
	if cfg.Recognizer.Mode == "http" && cfg.Recognizer.Endpoint == "" {
		return errors.New("recognizer.endpoint must be set when mode=http")
	}
	if cfg.Recognizer.TimeoutMS <= 0 {
		return errors.New("recognizer.timeout_ms must be positive")
	}
	if cfg.Recognizer.Concurrency <= 0 {
		return errors.New("recognizer.concurrency must be >= 1")
	}
	switch cfg.History.RetentionMode {
	case "ephemeral", "persistent":
	default:
		return errors.New("history.retention_mode must be one of ephemeral|persistent")
	}
	if cfg.History.RetentionMode == "persistent" && cfg.History.Path == "" {
		return errors.New("history.path must not be empty when retention is persistent")
	}
	if cfg.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be >= 0")
	}
	return nil
}
