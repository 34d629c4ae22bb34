package scoring

import "testing"

func TestClassifyBandThresholds(t *testing.T) {
	cases := []struct {
		accuracy, fluency, prosody float64
		want                       string
	}{
		{80, 75, 70, "high"},    // weighted = 76
		{75, 75, 75, "high"},    // weighted = 75, closed lower bound
		{60, 55, 50, "medium"},  // weighted = 56
		{55, 55, 55, "medium"},  // weighted = 55
		{40, 35, 30, "low"},     // weighted = 36
		{35, 35, 35, "low"},     // weighted = 35
		{30, 30, 30, "needs-practice"},
		{0, 0, 0, "needs-practice"},
	}
	for _, tc := range cases {
		band, _ := Classify(ScoreSet{Accuracy: tc.accuracy, Fluency: tc.fluency, Prosody: tc.prosody})
		if band.ID != tc.want {
			t.Fatalf("acc=%v flu=%v pro=%v: expected band %q, got %q", tc.accuracy, tc.fluency, tc.prosody, tc.want, band.ID)
		}
		if band.Label == "" || band.Description == "" {
			t.Fatalf("band %q missing label or description", band.ID)
		}
	}
}

func TestClassifyCEFRClosedBounds(t *testing.T) {
	cases := []struct {
		overall float64
		want    string
	}{
		{100, "C1"}, {85, "C1"}, {84, "B2"}, {70, "B2"}, {69, "B1"},
		{55, "B1"}, {54, "A2"}, {40, "A2"}, {39, "A1"}, {0, "A1"},
	}
	for _, tc := range cases {
		_, scales := Classify(ScoreSet{Overall: tc.overall})
		if scales.CEFR != tc.want {
			t.Fatalf("overall=%v: expected CEFR %q, got %q", tc.overall, tc.want, scales.CEFR)
		}
	}
}

func TestClassifyScaleConversions(t *testing.T) {
	_, scales := Classify(ScoreSet{Overall: 100})
	if scales.TOEFL != 28 {
		t.Fatalf("overall=100: expected 0-30 scale min(30, floor(28))=28, got %d", scales.TOEFL)
	}
	if scales.IELTS != 8.5 {
		t.Fatalf("overall=100: expected 0-9.0 scale 8.5, got %v", scales.IELTS)
	}

	_, scales = Classify(ScoreSet{Overall: 86})
	if scales.TOEFL != 24 {
		t.Fatalf("overall=86: expected floor(24.08)=24, got %d", scales.TOEFL)
	}
	if scales.IELTS != 7.3 {
		t.Fatalf("overall=86: expected round(7.31,1)=7.3, got %v", scales.IELTS)
	}

	_, scales = Classify(ScoreSet{Overall: 0})
	if scales.TOEFL != 0 || scales.IELTS != 0 {
		t.Fatalf("overall=0: expected zero scale equivalents, got %+v", scales)
	}
}

func TestClassifyTierThresholds(t *testing.T) {
	cases := []struct {
		overall float64
		want    string
	}{
		{90, "tier1"}, {85, "tier1"}, {84, "tier2"}, {75, "tier2"},
		{74, "tier3"}, {60, "tier3"}, {59, "tier4"}, {45, "tier4"},
		{44, "tier5"}, {30, "tier5"}, {29, "tier6"}, {0, "tier6"},
	}
	for _, tc := range cases {
		_, scales := Classify(ScoreSet{Overall: tc.overall})
		if scales.Tier != tc.want {
			t.Fatalf("overall=%v: expected %q, got %q", tc.overall, tc.want, scales.Tier)
		}
	}
}

func TestClassifyDeterministic(t *testing.T) {
	s := ScoreSet{Overall: 67, Accuracy: 64, Fluency: 59, Prosody: 54}
	b1, e1 := Classify(s)
	b2, e2 := Classify(s)
	if b1 != b2 || e1 != e2 {
		t.Fatal("classification not deterministic")
	}
}
