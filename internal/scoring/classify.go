package scoring

import "math"

// Band is a coarse categorical rating of how understandable the speech is
// to a general international listener.
type Band struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var (
	BandHigh = Band{
		ID:          "high",
		Label:       "Highly intelligible",
		Description: "Understood without effort in international settings.",
	}
	BandMedium = Band{
		ID:          "medium",
		Label:       "Generally intelligible",
		Description: "Understood with occasional listener effort.",
	}
	BandLow = Band{
		ID:          "low",
		Label:       "Partially intelligible",
		Description: "Frequent listener effort required; meaning is sometimes lost.",
	}
	BandNeedsPractice = Band{
		ID:          "needs-practice",
		Label:       "Needs practice",
		Description: "Intelligibility breaks down outside familiar phrases.",
	}
)

// ScaleEquivalents projects the internal 0-100 overall score onto external
// standardized test scales.
type ScaleEquivalents struct {
	CEFR  string  `json:"cefr"`
	TOEFL int     `json:"toefl"` // speaking section, 0-30
	IELTS float64 `json:"ielts"` // speaking band, 0-9.0 in half/decimal steps
	Tier  string  `json:"tier"`  // discrete six-tier scale, tier1 (best) to tier6
}

// Classify maps a score set onto an intelligibility band and the external
// scale equivalents. All thresholds are closed lower bounds: a boundary
// value belongs to the higher band.
func Classify(s ScoreSet) (Band, ScaleEquivalents) {
	weighted := s.Accuracy*0.4 + s.Fluency*0.4 + s.Prosody*0.2

	var band Band
	switch {
	case weighted >= 75:
		band = BandHigh
	case weighted >= 55:
		band = BandMedium
	case weighted >= 35:
		band = BandLow
	default:
		band = BandNeedsPractice
	}

	return band, ScaleEquivalents{
		CEFR:  cefrLevel(s.Overall),
		TOEFL: int(math.Min(30, math.Floor(s.Overall*0.28))),
		IELTS: math.Min(9.0, math.Round(s.Overall/100*8.5*10)/10),
		Tier:  tierLevel(s.Overall),
	}
}

func cefrLevel(overall float64) string {
	switch {
	case overall >= 85:
		return "C1"
	case overall >= 70:
		return "B2"
	case overall >= 55:
		return "B1"
	case overall >= 40:
		return "A2"
	default:
		return "A1"
	}
}

func tierLevel(overall float64) string {
	switch {
	case overall >= 85:
		return "tier1"
	case overall >= 75:
		return "tier2"
	case overall >= 60:
		return "tier3"
	case overall >= 45:
		return "tier4"
	case overall >= 30:
		return "tier5"
	default:
		return "tier6"
	}
}
