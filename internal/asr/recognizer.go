package asr

import "context"

// Recognition captures the remote service's answer for one audio window.
type Recognition struct {
	Text       string
	Confidence float64 // [0,1], 0 when the service returned no alternatives
}

// Recognizer abstracts the remote speech-recognition service.
type Recognizer interface {
	Recognize(ctx context.Context, pcm []byte, sampleRate, channels int, language string) (Recognition, error)
}
