package assess

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oratio-labs/oratio-core/internal/media"
)

// dispatch fans windows out across a bounded worker pool and collects one
// recognition per window. Any per-window failure (network, auth, non-200,
// malformed response, timeout) is converted into a silent recognition; the
// failed window never aborts the run. The pool size is the single knob
// bounding outbound concurrency against the remote service.
func (s *Service) dispatch(ctx context.Context, windows []media.Window, language string, progress func(done, total int)) []WindowRecognition {
	total := len(windows)
	results := make([]WindowRecognition, total)
	for i := range results {
		results[i].Index = i
	}
	if total == 0 {
		return results
	}

	workers := s.concurrency
	if workers > total {
		workers = total
	}

	jobs := make(chan media.Window)
	var done atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for window := range jobs {
				results[window.Index] = s.recognizeWindow(ctx, window, language)
				completed := int(done.Add(1))
				if progress != nil {
					progress(completed, total)
				}
			}
		}()
	}

	for _, window := range windows {
		select {
		case jobs <- window:
		case <-ctx.Done():
			// Caller cancelled mid-run: stop feeding; undispatched windows
			// stay recorded as failures with their index intact.
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

func (s *Service) recognizeWindow(ctx context.Context, window media.Window, language string) WindowRecognition {
	callCtx, cancel := context.WithTimeout(ctx, s.windowTimeout)
	defer cancel()

	rec, err := s.recognizer.Recognize(callCtx, window.PCM, s.sampleRate, s.channels, language)
	if err != nil {
		s.log.Warn("window recognition failed, scoring as silence",
			slog.Int("window", window.Index),
			slog.Float64("start", window.Start),
			slog.String("error", err.Error()))
		return WindowRecognition{Index: window.Index}
	}

	confidence := rec.Confidence
	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return WindowRecognition{
		Index:      window.Index,
		Text:       rec.Text,
		Confidence: confidence,
		OK:         true,
	}
}

// windowTimeout for a single recognition call.
func windowTimeout(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
