package media

import "math"

// Chunk partitions canonical audio into ceil(duration/windowSeconds)
// ordered, non-overlapping windows covering [0, duration). Every window
// except the last lasts exactly windowSeconds; the last carries the
// remainder, however short. The split is a pure function of duration and
// windowSeconds, so re-running it over the same audio yields the same plan.
func Chunk(audio *CanonicalAudio, windowSeconds float64) []Window {
	if audio == nil || windowSeconds <= 0 || audio.Duration <= 0 {
		return nil
	}

	count := int(math.Ceil(audio.Duration / windowSeconds))
	bytesPerSecond := float64(audio.SampleRate * audio.Channels * 2)

	windows := make([]Window, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * windowSeconds
		dur := windowSeconds
		if remaining := audio.Duration - start; remaining < dur {
			dur = remaining
		}

		lo := sampleAligned(int(math.Round(start * bytesPerSecond)))
		hi := sampleAligned(int(math.Round((start + dur) * bytesPerSecond)))
		if i == count-1 {
			hi = len(audio.PCM)
		}
		if lo > len(audio.PCM) {
			lo = len(audio.PCM)
		}
		if hi > len(audio.PCM) {
			hi = len(audio.PCM)
		}
		if hi < lo {
			hi = lo
		}

		windows = append(windows, Window{
			Index:    i,
			Start:    start,
			Duration: dur,
			PCM:      audio.PCM[lo:hi],
		})
	}
	return windows
}

// sampleAligned rounds a byte offset down to a 16-bit sample boundary.
func sampleAligned(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset &^ 1
}
