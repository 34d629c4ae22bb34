package media

import (
	"errors"
	"os"
)

// Fatal failure classes for the normalization stage. Everything downstream
// of a successful normalization degrades gracefully instead of failing.
var (
	ErrUnsupportedFormat = errors.New("unsupported media format")
	ErrTranscode         = errors.New("transcode failed")
	ErrDurationProbe     = errors.New("duration probe failed")
)

// CanonicalAudio is the normalized mono 16kHz signed 16-bit PCM stream all
// downstream stages assume. PCM is little-endian interleaved samples.
type CanonicalAudio struct {
	PCM        []byte
	SampleRate int
	Channels   int
	Duration   float64 // seconds, set by ProbeDuration

	path    string // canonical wav on disk, kept for probing
	tempDir string
}

// Path returns the location of the canonical wav file.
func (a *CanonicalAudio) Path() string { return a.path }

// Cleanup removes the temporary artifacts backing this audio.
func (a *CanonicalAudio) Cleanup() {
	if a != nil && a.tempDir != "" {
		_ = os.RemoveAll(a.tempDir)
	}
}

// Window is a bounded-duration slice of canonical audio, the unit of
// dispatch to the recognition service.
type Window struct {
	Index    int
	Start    float64 // seconds from the beginning of the audio
	Duration float64 // seconds; the last window may be shorter
	PCM      []byte
}
