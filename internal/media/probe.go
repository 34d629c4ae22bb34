package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ProbeDuration asks the transcoding utility for the canonical audio's
// duration. Normalization already succeeded by this point, so a probe
// failure is treated as part of the normalization failure domain and is
// fatal for the run.
func (n *Normalizer) ProbeDuration(ctx context.Context, audio *CanonicalAudio) (float64, error) {
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(n.cfg.ProbeTimeoutMS)*time.Millisecond)
	defer cancel()

	args := append([]string{}, n.ffprobe[1:]...)
	args = append(args,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audio.Path(),
	)
	cmd := exec.CommandContext(runCtx, n.ffprobe[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("%w: %v: %s", ErrDurationProbe, err, tail(stderr.Bytes()))
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable output %q", ErrDurationProbe, strings.TrimSpace(stdout.String()))
	}
	if seconds < 0 {
		return 0, fmt.Errorf("%w: negative duration %f", ErrDurationProbe, seconds)
	}
	audio.Duration = seconds
	return seconds, nil
}
