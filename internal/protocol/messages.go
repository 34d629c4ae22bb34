package protocol

import "time"

// AssessmentCompleted announces a finished assessment on the bus so
// downstream consumers (grading views, dashboards, XP awarders) can react
// without polling.
type AssessmentCompleted struct {
	ID              string    `json:"id"`
	Filename        string    `json:"filename,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	Overall         float64   `json:"overall"`
	Accuracy        float64   `json:"accuracy"`
	Fluency         float64   `json:"fluency"`
	Completeness    float64   `json:"completeness"`
	Prosody         float64   `json:"prosody"`
	Band            string    `json:"band"`
	CEFR            string    `json:"cefr"`
	Success         bool      `json:"success"`
	Timestamp       time.Time `json:"timestamp"`
}

const SubjectAssessmentCompleted = "assessment.completed"
