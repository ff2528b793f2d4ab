package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"patientsim/internal/config"
	"patientsim/pkg"
)

func testClientConfig(baseURL string) config.ElevenLabsConfig {
	return config.ElevenLabsConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		VoiceID: "voice-123",
		ModelID: "eleven_multilingual_v2",
		Timeout: 5 * time.Second,
	}
}

func TestSynthesize(t *testing.T) {
	var gotReq synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/text-to-speech/voice-123", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		assert.Equal(t, "audio/mpeg", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write([]byte("mp3-bytes"))
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	voice := pkg.VoiceSettings{Stability: 0.3, SimilarityBoost: 0.7, Style: 0.5, UseSpeakerBoost: true}
	audio, err := c.Synthesize(context.Background(), "Hvad vil du?", voice)

	require.NoError(t, err)
	assert.Equal(t, []byte("mp3-bytes"), audio)
	assert.Equal(t, "Hvad vil du?", gotReq.Text)
	assert.Equal(t, "eleven_multilingual_v2", gotReq.ModelID)
	assert.Equal(t, voice, gotReq.VoiceSettings)
}

func TestSynthesizeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid api key"}`))
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	_, err := c.Synthesize(context.Background(), "Hej", pkg.VoiceSettings{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestSynthesizeHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server detects the client disconnect and
		// cancels r.Context(); otherwise srv.Close() deadlocks.
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := NewClient(testClientConfig(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := c.Synthesize(ctx, "Hej", pkg.VoiceSettings{})
	assert.Error(t, err)
}
