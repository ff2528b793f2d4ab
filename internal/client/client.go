package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"patientsim/pkg"
)

// Client talks to the proxy server's three endpoints and satisfies the
// session core's ReplyService, EvaluationService and SynthesisService
// interfaces.  It is the Go counterpart of the browser frontend's fetch
// calls.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New constructs a client for the proxy at baseURL (no trailing slash).
// Per-call deadlines come from the caller's context; the transport itself
// has no timeout so the turn sequencer stays in control.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// Reply fetches the persona's raw reply for a trainee message.
func (c *Client) Reply(ctx context.Context, message string, dialog []pkg.Utterance) (string, error) {
	var resp pkg.ChatResponse
	err := c.postJSON(ctx, "/api/chat", pkg.ChatRequest{Message: message, Dialog: dialog}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Reply == "" {
		return "Ingen svar fra Mogens.", nil
	}
	return resp.Reply, nil
}

// Evaluate fetches the raw evaluation of a trainee utterance.
func (c *Client) Evaluate(ctx context.Context, userMessage, personaReply string, conversationContext []pkg.Utterance) (string, error) {
	var resp pkg.EvaluateResponse
	err := c.postJSON(ctx, "/api/evaluate", pkg.EvaluateRequest{
		UserMessage:         userMessage,
		MogensReply:         personaReply,
		ConversationContext: conversationContext,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Evaluation, nil
}

// Synthesize fetches synthesized speech audio for persona text.
func (c *Client) Synthesize(ctx context.Context, text string, voice pkg.VoiceSettings) ([]byte, error) {
	body, err := json.Marshal(pkg.SpeakRequest{Text: text, VoiceSettings: &voice})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/speak", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var apiErr pkg.APIError
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
