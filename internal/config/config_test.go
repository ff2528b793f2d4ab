package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.ChatModel)
	assert.Equal(t, 15*time.Second, cfg.OpenAI.ReplyTimeout)
	assert.Equal(t, 10*time.Second, cfg.OpenAI.EvalTimeout)
	assert.Equal(t, 20*time.Second, cfg.ElevenLabs.Timeout)
	assert.Equal(t, "oR7UI6bWI8DTn0Oe1kc3", cfg.ElevenLabs.VoiceID)
	assert.Equal(t, "Mogens", cfg.Persona.Name)
	assert.Len(t, cfg.Persona.StatusDescriptions, 5)
	assert.Len(t, cfg.Persona.VoiceByStatus, 5, "the built-in voice table is injected")
	assert.NotEmpty(t, cfg.Persona.ClosingPhrases)
	assert.Len(t, cfg.Audio.WaitingClips, 3)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patientsim.yaml")
	content := `
server:
  port: "8080"
openai:
  chat_model: gpt-4o-mini
timing:
  speech_start_delay: 50ms
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.ChatModel)
	assert.Equal(t, 50*time.Millisecond, cfg.Timing.SpeechStartDelay)
	assert.Equal(t, "Mogens", cfg.Persona.Name, "unset fields keep their defaults")
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("PATIENTSIM_SERVER_PORT", "4001")
	t.Setenv("PATIENTSIM_OPENAI_CHAT_MODEL", "gpt-4o")

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, "4001", cfg.Server.Port, "nested keys map to underscore-joined env names")
	assert.Equal(t, "gpt-4o", cfg.OpenAI.ChatModel)
	assert.Equal(t, "Mogens", cfg.Persona.Name, "untouched keys keep their defaults")
}

func TestLoadRejectsMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "findes-ikke.yaml"))
	assert.Error(t, err)
}

func TestDefaultIsValidated(t *testing.T) {
	cfg := Default()
	assert.Len(t, cfg.Persona.VoiceByStatus, 5)
	assert.GreaterOrEqual(t, cfg.Timing.WaitingFadeSteps, 1)
}

func TestVoiceFor(t *testing.T) {
	cfg := Default()

	assert.Equal(t, cfg.Persona.VoiceByStatus[0], cfg.VoiceFor(1))
	assert.Equal(t, cfg.Persona.VoiceByStatus[4], cfg.VoiceFor(5))
	assert.Equal(t, cfg.Persona.VoiceByStatus[0], cfg.VoiceFor(0), "out-of-range falls back to the wary voice")
	assert.Equal(t, cfg.Persona.VoiceByStatus[0], cfg.VoiceFor(9))
	assert.Greater(t, cfg.VoiceFor(5).Stability, cfg.VoiceFor(1).Stability, "the voice steadies as the attitude improves")
}

func TestDescribeStatus(t *testing.T) {
	cfg := Default()

	assert.Equal(t, cfg.Persona.StatusDescriptions[0], cfg.DescribeStatus(1))
	assert.Equal(t, cfg.Persona.StatusDescriptions[4], cfg.DescribeStatus(5))
	assert.Equal(t, "Ukendt status", cfg.DescribeStatus(0))
	assert.Equal(t, "Ukendt status", cfg.DescribeStatus(6))
}
