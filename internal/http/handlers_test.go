package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientsim/internal/config"
	"patientsim/internal/llm"
	"patientsim/pkg"
)

type fakeLLM struct {
	reply    string
	replyErr error
	eval     string
	evalErr  error
}

func (f *fakeLLM) Reply(ctx context.Context, message string, dialog []pkg.Utterance) (string, error) {
	return f.reply, f.replyErr
}

func (f *fakeLLM) Evaluate(ctx context.Context, userMessage, personaReply string, conversationContext []pkg.Utterance) (string, error) {
	return f.eval, f.evalErr
}

type fakeTTS struct {
	audio []byte
	err   error
}

func (f *fakeTTS) Synthesize(ctx context.Context, text string, voice pkg.VoiceSettings) ([]byte, error) {
	return f.audio, f.err
}

func newTestServer(llmClient llm.Client, tts Synthesizer) *Server {
	return NewServer(llmClient, tts, config.Default(), zerolog.Nop())
}

func postJSON(t *testing.T, s *Server, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleChat(t *testing.T) {
	s := newTestServer(&fakeLLM{reply: "Hvad vil du? [Status: 1]"}, &fakeTTS{})

	rec := postJSON(t, s, "/api/chat", pkg.ChatRequest{Message: "Hej Mogens"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pkg.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hvad vil du? [Status: 1]", resp.Reply)
}

func TestHandleChatTimeoutFallback(t *testing.T) {
	s := newTestServer(&fakeLLM{replyErr: context.DeadlineExceeded}, &fakeTTS{})

	rec := postJSON(t, s, "/api/chat", pkg.ChatRequest{Message: "Hej"})

	require.Equal(t, http.StatusOK, rec.Code, "a timed-out reply degrades, it does not fail")
	var resp pkg.ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, llm.FallbackReply, resp.Reply)
}

func TestHandleChatUpstreamError(t *testing.T) {
	s := newTestServer(&fakeLLM{replyErr: errors.New("quota exceeded")}, &fakeTTS{})

	rec := postJSON(t, s, "/api/chat", pkg.ChatRequest{Message: "Hej"})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var apiErr pkg.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Contains(t, apiErr.Error, "quota exceeded")
}

func TestHandleChatRejectsBadBody(t *testing.T) {
	s := newTestServer(&fakeLLM{}, &fakeTTS{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader([]byte("{ikke json")))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvaluate(t *testing.T) {
	s := newTestServer(&fakeLLM{eval: "[Score: 7/10]\nStyrker: Du lytter"}, &fakeTTS{})

	rec := postJSON(t, s, "/api/evaluate", pkg.EvaluateRequest{
		UserMessage: "Hvordan har du det?",
		MogensReply: "Skidt.",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pkg.EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "[Score: 7/10]\nStyrker: Du lytter", resp.Evaluation)
}

func TestHandleEvaluateTimeoutFallback(t *testing.T) {
	s := newTestServer(&fakeLLM{evalErr: context.DeadlineExceeded}, &fakeTTS{})

	rec := postJSON(t, s, "/api/evaluate", pkg.EvaluateRequest{UserMessage: "Hej"})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp pkg.EvaluateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, llm.FallbackEvaluation, resp.Evaluation)
}

func TestHandleSpeak(t *testing.T) {
	s := newTestServer(&fakeLLM{}, &fakeTTS{audio: []byte("mp3-bytes")})

	rec := postJSON(t, s, "/api/speak", pkg.SpeakRequest{Text: "Hvad vil du?"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "mp3-bytes", rec.Body.String())
}

func TestHandleSpeakTimeoutHasNoFallback(t *testing.T) {
	s := newTestServer(&fakeLLM{}, &fakeTTS{err: context.DeadlineExceeded})

	rec := postJSON(t, s, "/api/speak", pkg.SpeakRequest{Text: "Hej"})

	require.Equal(t, http.StatusRequestTimeout, rec.Code)
	var apiErr pkg.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, "timeout ved lydgenerering", apiErr.Error)
}

func TestRouting(t *testing.T) {
	s := newTestServer(&fakeLLM{}, &fakeTTS{})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/chat", http.StatusNotFound},
		{http.MethodPost, "/ukendt", http.StatusNotFound},
		{http.MethodOptions, "/api/chat", http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}

func TestCORSHeaders(t *testing.T) {
	s := newTestServer(&fakeLLM{}, &fakeTTS{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}
