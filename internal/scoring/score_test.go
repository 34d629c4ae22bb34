package scoring

import (
	"strings"
	"testing"
)

func TestScoreBoundaryScenario(t *testing.T) {
	// accuracy=80 via mean confidence, completeness=100 via full coverage.
	sig := Signal{
		Transcript:        "the quick brown fox jumps",
		MeanConfidence:    0.8,
		SuccessfulWindows: 2,
	}
	scores := Score(sig, "the quick brown fox jumps")

	if scores.Accuracy != 80 {
		t.Fatalf("expected accuracy 80, got %v", scores.Accuracy)
	}
	if scores.Completeness != 100 {
		t.Fatalf("expected completeness 100, got %v", scores.Completeness)
	}
	if scores.Overall != 86 {
		t.Fatalf("expected overall round(80*0.7+100*0.3)=86, got %v", scores.Overall)
	}
	if scores.Fluency != 75 {
		t.Fatalf("expected fluency 75, got %v", scores.Fluency)
	}
	if scores.Prosody != 70 {
		t.Fatalf("expected prosody 70, got %v", scores.Prosody)
	}
}

func TestScoreAllWindowsFailed(t *testing.T) {
	scores := Score(Signal{Transcript: "", MeanConfidence: 0, SuccessfulWindows: 0}, "")

	if scores.Accuracy != 30 {
		t.Fatalf("expected heuristic accuracy 30, got %v", scores.Accuracy)
	}
	if scores.Completeness != 50 {
		t.Fatalf("expected heuristic completeness 50, got %v", scores.Completeness)
	}
	if scores.Overall != 36 {
		t.Fatalf("expected overall round(30*0.7+50*0.3)=36, got %v", scores.Overall)
	}
	if scores.Fluency != 50 || scores.Prosody != 50 {
		t.Fatalf("expected fluency/prosody floors of 50, got %v/%v", scores.Fluency, scores.Prosody)
	}
}

func TestScoreSpokenFallbackWithoutConfidence(t *testing.T) {
	scores := Score(Signal{Transcript: "some words made it through", SuccessfulWindows: 0}, "")

	if scores.Accuracy != 70 {
		t.Fatalf("expected heuristic accuracy 70 for non-empty transcript, got %v", scores.Accuracy)
	}
	if scores.Completeness != 80 {
		t.Fatalf("expected heuristic completeness 80, got %v", scores.Completeness)
	}
}

func TestScoreCompletenessCapped(t *testing.T) {
	sig := Signal{
		Transcript:        strings.Repeat("word ", 50),
		MeanConfidence:    0.9,
		SuccessfulWindows: 1,
	}
	scores := Score(sig, "short reference")
	if scores.Completeness != 100 {
		t.Fatalf("expected completeness capped at 100, got %v", scores.Completeness)
	}
}

func TestScoreFieldsAlwaysInRange(t *testing.T) {
	signals := []Signal{
		{},
		{Transcript: "a", MeanConfidence: 1.5, SuccessfulWindows: 3},
		{Transcript: "", MeanConfidence: -2, SuccessfulWindows: 1},
		{Transcript: strings.Repeat("x ", 1000), MeanConfidence: 0.5, SuccessfulWindows: 9},
	}
	references := []string{"", "one two three", strings.Repeat("ref ", 500)}

	for _, sig := range signals {
		for _, ref := range references {
			s := Score(sig, ref)
			for name, v := range map[string]float64{
				"overall": s.Overall, "accuracy": s.Accuracy, "fluency": s.Fluency,
				"completeness": s.Completeness, "prosody": s.Prosody,
			} {
				if v < 0 || v > 100 {
					t.Fatalf("%s out of range: %v (signal=%+v ref=%q)", name, v, sig, ref)
				}
			}
		}
	}
}

func TestScoreDeterministic(t *testing.T) {
	sig := Signal{Transcript: "repeatable output", MeanConfidence: 0.66, SuccessfulWindows: 4}
	first := Score(sig, "repeatable output expected here")
	second := Score(sig, "repeatable output expected here")
	if first != second {
		t.Fatalf("score not deterministic: %+v vs %+v", first, second)
	}
}
