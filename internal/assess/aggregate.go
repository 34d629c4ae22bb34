package assess

import (
	"sort"
	"strings"

	"github.com/oratio-labs/oratio-core/internal/scoring"
)

// WindowRecognition is the dispatcher's verdict for one audio window.
// Failed windows carry empty text and zero confidence; they count as
// silence rather than as errors.
type WindowRecognition struct {
	Index      int
	Text       string
	Confidence float64
	OK         bool
}

// Aggregate merges per-window recognitions into a single signal. Windows
// may have completed in any order; the transcript is rebuilt strictly by
// window index. Mean confidence covers successful windows only and is 0
// when none succeeded.
func Aggregate(recognitions []WindowRecognition) scoring.Signal {
	ordered := append([]WindowRecognition(nil), recognitions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })

	var parts []string
	var confidenceSum float64
	successes := 0
	for _, rec := range ordered {
		if text := strings.TrimSpace(rec.Text); text != "" {
			parts = append(parts, text)
		}
		if rec.OK {
			confidenceSum += rec.Confidence
			successes++
		}
	}

	var mean float64
	if successes > 0 {
		mean = confidenceSum / float64(successes)
	}
	return scoring.Signal{
		Transcript:        strings.Join(parts, " "),
		MeanConfidence:    mean,
		SuccessfulWindows: successes,
	}
}
