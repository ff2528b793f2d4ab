package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"patientsim/internal/config"
	"patientsim/pkg"
)

// Client calls the ElevenLabs text-to-speech REST API and returns the raw
// audio/mpeg payload.  The voice and model are fixed per deployment; the
// per-request voice settings vary with the persona's attitude.
type Client struct {
	httpClient *http.Client
	cfg        config.ElevenLabsConfig
}

// NewClient constructs an ElevenLabs client from configuration.
func NewClient(cfg config.ElevenLabsConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}
}

type synthesizeRequest struct {
	Text          string            `json:"text"`
	ModelID       string            `json:"model_id"`
	VoiceSettings pkg.VoiceSettings `json:"voice_settings"`
}

// Synthesize converts text to speech and returns the audio bytes.  Errors
// include the upstream status code so the proxy can distinguish timeouts
// from provider failures.
func (c *Client) Synthesize(ctx context.Context, text string, voice pkg.VoiceSettings) ([]byte, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:          text,
		ModelID:       c.cfg.ModelID,
		VoiceSettings: voice,
	})
	if err != nil {
		return nil, fmt.Errorf("encode synthesis request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", c.cfg.BaseURL, c.cfg.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synthesis request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("synthesis upstream returned %d: %s", resp.StatusCode, snippet)
	}
	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read synthesis response: %w", err)
	}
	return audio, nil
}
