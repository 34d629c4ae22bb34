package asr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

type httpRecognizer struct {
	endpoint string
	token    string
	client   *http.Client
}

type alternative struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type recognizeResponse struct {
	DisplayText  string        `json:"displayText"`
	Alternatives []alternative `json:"alternatives"`
}

// NewHTTPRecognizer talks to a remote recognition service that accepts a
// wav body and replies with a best transcript plus ranked alternatives.
func NewHTTPRecognizer(endpoint, token string) Recognizer {
	return &httpRecognizer{
		endpoint: endpoint,
		token:    token,
		client:   http.DefaultClient,
	}
}

func (r *httpRecognizer) Recognize(ctx context.Context, pcm []byte, sampleRate, channels int, language string) (Recognition, error) {
	wavPath, err := writePCMToWav(pcm, sampleRate, channels)
	if err != nil {
		return Recognition{}, err
	}
	defer os.Remove(wavPath)

	body, err := os.Open(wavPath)
	if err != nil {
		return Recognition{}, fmt.Errorf("open wav payload: %w", err)
	}
	defer body.Close()

	endpoint := r.endpoint
	if language != "" {
		endpoint += "?language=" + url.QueryEscape(language)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Recognition{}, err
	}
	req.Header.Set("Content-Type", "audio/wav")
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if info, err := body.Stat(); err == nil {
		req.ContentLength = info.Size()
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return Recognition{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return Recognition{}, fmt.Errorf("recognition service returned status %s", resp.Status)
	}

	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Recognition{}, fmt.Errorf("decode recognition response: %w", err)
	}

	out := Recognition{Text: decoded.DisplayText}
	if len(decoded.Alternatives) > 0 {
		out.Confidence = decoded.Alternatives[0].Confidence
		if out.Text == "" {
			out.Text = decoded.Alternatives[0].Text
		}
	}
	return out, nil
}

// writePCMToWav wraps raw s16le samples in a wav container on disk; the wav
// encoder needs a seekable writer to patch up the header on close.
func writePCMToWav(pcm []byte, sampleRate, channels int) (string, error) {
	if len(pcm)%2 != 0 {
		return "", fmt.Errorf("pcm payload not aligned")
	}
	file, err := os.CreateTemp("", "oratio_asr_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	defer file.Close()

	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}}
	samples := make([]int, len(pcm)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int(int16(binary.LittleEndian.Uint16(pcm[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close wav encoder: %w", err)
	}
	return file.Name(), nil
}
