package assess

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/oratio-labs/oratio-core/internal/asr"
	"github.com/oratio-labs/oratio-core/internal/config"
	"github.com/oratio-labs/oratio-core/internal/media"
	"github.com/oratio-labs/oratio-core/internal/scoring"
)

// Normalizer is the slice of the media layer the pipeline depends on.
type Normalizer interface {
	Normalize(ctx context.Context, raw []byte, extension string) (*media.CanonicalAudio, error)
	ProbeDuration(ctx context.Context, audio *media.CanonicalAudio) (float64, error)
}

// Request is one learner submission to assess.
type Request struct {
	Audio         []byte
	Filename      string
	Extension     string // optional, derived from Filename when empty
	ReferenceText string // optional expected script
	Language      string // optional, falls back to configured default
	WindowSeconds float64
	// Progress, when set, is called as windows complete. It must be cheap;
	// it runs on dispatcher goroutines.
	Progress func(done, total int)
}

// Result is the full assessment returned to the caller. Fatal errors set
// Success=false; everything else degrades into lower scores instead.
type Result struct {
	ID                string                   `json:"id"`
	Success           bool                     `json:"success"`
	Error             string                   `json:"error,omitempty"`
	ErrorCode         string                   `json:"error_code,omitempty"`
	RecognizedText    string                   `json:"recognized_text"`
	DurationSeconds   float64                  `json:"duration_seconds"`
	WindowCount       int                      `json:"window_count"`
	SuccessfulWindows int                      `json:"successful_windows"`
	Scores            scoring.ScoreSet         `json:"scores"`
	Intelligibility   scoring.Band             `json:"intelligibility"`
	ScaleEquivalents  scoring.ScaleEquivalents `json:"scale_equivalents"`
}

// Error codes surfaced with Success=false.
const (
	CodeMediaFormat   = "media_format"
	CodeTranscode     = "transcode"
	CodeDurationProbe = "duration_probe"
)

// Service runs the speech assessment pipeline. It is stateless per
// invocation: each run owns its submission, canonical audio and windows,
// and nothing is shared across runs except the recognizer and its
// concurrency budget.
type Service struct {
	normalizer    Normalizer
	recognizer    asr.Recognizer
	log           *slog.Logger
	tracer        trace.Tracer
	language      string
	windowSeconds float64
	windowTimeout time.Duration
	concurrency   int
	sampleRate    int
	channels      int
}

func NewService(cfg config.Config, normalizer Normalizer, recognizer asr.Recognizer, log *slog.Logger) *Service {
	return &Service{
		normalizer:    normalizer,
		recognizer:    recognizer,
		log:           log,
		tracer:        otel.Tracer("oratio/assess"),
		language:      cfg.Recognizer.Language,
		windowSeconds: cfg.Media.WindowSeconds,
		windowTimeout: windowTimeout(cfg.Recognizer.TimeoutMS),
		concurrency:   cfg.Recognizer.Concurrency,
		sampleRate:    cfg.Media.SampleRate,
		channels:      cfg.Media.Channels,
	}
}

// Assess runs the full pipeline: normalize, probe, chunk, fan-out
// recognition, aggregate, score, classify.
func (s *Service) Assess(ctx context.Context, req Request) Result {
	ctx, span := s.tracer.Start(ctx, "assess")
	defer span.End()

	result := Result{ID: uuid.NewString()}
	extension := req.Extension
	if extension == "" {
		extension = filepath.Ext(req.Filename)
	}
	span.SetAttributes(attribute.String("submission.extension", extension))

	audio, err := s.normalizer.Normalize(ctx, req.Audio, extension)
	if err != nil {
		return s.fatal(span, result, err)
	}
	defer audio.Cleanup()

	duration, err := s.normalizer.ProbeDuration(ctx, audio)
	if err != nil {
		return s.fatal(span, result, err)
	}
	result.DurationSeconds = duration
	span.SetAttributes(attribute.Float64("audio.duration_seconds", duration))

	windowSeconds := req.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = s.windowSeconds
	}
	windows := media.Chunk(audio, windowSeconds)
	result.WindowCount = len(windows)

	language := req.Language
	if language == "" {
		language = s.language
	}
	recognitions := s.dispatch(ctx, windows, language, req.Progress)

	signal := Aggregate(recognitions)
	result.RecognizedText = signal.Transcript
	result.SuccessfulWindows = signal.SuccessfulWindows

	result.Scores = scoring.Score(signal, req.ReferenceText)
	result.Intelligibility, result.ScaleEquivalents = scoring.Classify(result.Scores)
	result.Success = true

	s.log.Info("assessment completed",
		slog.String("id", result.ID),
		slog.Float64("duration_seconds", duration),
		slog.Int("windows", result.WindowCount),
		slog.Int("successful_windows", result.SuccessfulWindows),
		slog.Float64("overall", result.Scores.Overall),
		slog.String("band", result.Intelligibility.ID))
	return result
}

// fatal maps a normalization-domain error onto the surfaced taxonomy.
func (s *Service) fatal(span trace.Span, result Result, err error) Result {
	switch {
	case errors.Is(err, media.ErrUnsupportedFormat):
		result.ErrorCode = CodeMediaFormat
	case errors.Is(err, media.ErrDurationProbe):
		result.ErrorCode = CodeDurationProbe
	default:
		result.ErrorCode = CodeTranscode
	}
	result.Error = userMessage(err)
	span.SetAttributes(attribute.String("error_code", result.ErrorCode))
	s.log.Warn("assessment failed",
		slog.String("id", result.ID),
		slog.String("code", result.ErrorCode),
		slog.String("error", err.Error()))
	return result
}

// userMessage trims internal detail (utility stderr and the like) down to
// the sentinel's human-readable prefix plus the first context fragment.
func userMessage(err error) string {
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx > 0 {
		msg = msg[:idx]
	}
	const max = 200
	if len(msg) > max {
		msg = msg[:max]
	}
	return msg
}
