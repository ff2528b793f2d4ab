package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"patientsim/pkg"
)

// Config stores all configuration of the application.  Every field has a
// built-in default so the simulator runs without any config file; a YAML
// file or environment variables may override individual values.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	ElevenLabs ElevenLabsConfig `mapstructure:"elevenlabs"`
	Persona    PersonaConfig    `mapstructure:"persona"`
	Timing     TimingConfig     `mapstructure:"timing"`
	Audio      AudioConfig      `mapstructure:"audio"`
}

// ServerConfig stores the proxy server's listen settings.
type ServerConfig struct {
	Port          string `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// OpenAIConfig stores completion-service settings for reply generation and
// utterance evaluation.
type OpenAIConfig struct {
	APIKey          string        `mapstructure:"api_key"`
	ChatModel       string        `mapstructure:"chat_model"`
	ChatMaxTokens   int           `mapstructure:"chat_max_tokens"`
	ChatTemperature float32       `mapstructure:"chat_temperature"`
	EvalMaxTokens   int           `mapstructure:"eval_max_tokens"`
	EvalTemperature float32       `mapstructure:"eval_temperature"`
	ReplyTimeout    time.Duration `mapstructure:"reply_timeout"`
	EvalTimeout     time.Duration `mapstructure:"eval_timeout"`
}

// ElevenLabsConfig stores text-to-speech provider settings.
type ElevenLabsConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	VoiceID string        `mapstructure:"voice_id"`
	ModelID string        `mapstructure:"model_id"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// PersonaConfig stores persona metadata: the attitude scale descriptions,
// the per-status voice parameters and the phrases that end a session.
// Slices are indexed by attitude status minus one (status 1 through 5).
type PersonaConfig struct {
	Name               string              `mapstructure:"name"`
	StatusDescriptions []string            `mapstructure:"status_descriptions"`
	VoiceByStatus      []pkg.VoiceSettings `mapstructure:"voice_by_status"`
	ClosingPhrases     []string            `mapstructure:"closing_phrases"`
}

// TimingConfig stores the turn sequencer's delays.  The waiting loop is not
// started for near-instant replies: it is armed only after a randomized
// delay, drawn from a shorter range on the first turn and a longer one on
// subsequent turns.
type TimingConfig struct {
	FirstWaitDelayMin time.Duration `mapstructure:"first_wait_delay_min"`
	FirstWaitDelayMax time.Duration `mapstructure:"first_wait_delay_max"`
	LaterWaitDelayMin time.Duration `mapstructure:"later_wait_delay_min"`
	LaterWaitDelayMax time.Duration `mapstructure:"later_wait_delay_max"`
	SpeechStartDelay  time.Duration `mapstructure:"speech_start_delay"`
	WaitingFade       time.Duration `mapstructure:"waiting_fade"`
	WaitingFadeSteps  int           `mapstructure:"waiting_fade_steps"`
}

// AudioConfig stores the ambient sound inventory and the optional external
// player used by the terminal client.
type AudioConfig struct {
	WaitingClips  []string `mapstructure:"waiting_clips"`
	WelcomeClip   string   `mapstructure:"welcome_clip"`
	PlayerCommand string   `mapstructure:"player_command"`
}

// Load reads configuration from an optional file path plus environment
// variables, applying built-in defaults for every field.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("patientsim")
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("patientsim")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration without touching the
// filesystem or environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	_ = cfg.validate()
	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")
	v.SetDefault("server.allowed_origin", "*")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.chat_model", "gpt-3.5-turbo")
	v.SetDefault("openai.chat_max_tokens", 150)
	v.SetDefault("openai.chat_temperature", 0.8)
	v.SetDefault("openai.eval_max_tokens", 200)
	v.SetDefault("openai.eval_temperature", 0.7)
	v.SetDefault("openai.reply_timeout", "15s")
	v.SetDefault("openai.eval_timeout", "10s")

	v.SetDefault("elevenlabs.api_key", "")
	v.SetDefault("elevenlabs.base_url", "https://api.elevenlabs.io")
	v.SetDefault("elevenlabs.voice_id", "oR7UI6bWI8DTn0Oe1kc3") // Ida (dansk)
	v.SetDefault("elevenlabs.model_id", "eleven_multilingual_v2")
	v.SetDefault("elevenlabs.timeout", "20s")

	v.SetDefault("persona.name", "Mogens")
	v.SetDefault("persona.status_descriptions", []string{
		"Meget kritisk / lukket / modstand",
		"Kritisk / tøvende",
		"Lidt åben / spørgende",
		"Tæt på accept / samarbejdsvillig",
		"Positiv / indvilger i målinger",
	})
	v.SetDefault("persona.closing_phrases", []string{
		"farvel",
		"så går jeg",
		"jeg gider ikke snakke mere",
		"vi er færdige her",
	})

	v.SetDefault("timing.first_wait_delay_min", "400ms")
	v.SetDefault("timing.first_wait_delay_max", "900ms")
	v.SetDefault("timing.later_wait_delay_min", "1200ms")
	v.SetDefault("timing.later_wait_delay_max", "2500ms")
	v.SetDefault("timing.speech_start_delay", "300ms")
	v.SetDefault("timing.waiting_fade", "1s")
	v.SetDefault("timing.waiting_fade_steps", 10)

	v.SetDefault("audio.waiting_clips", []string{
		"sounds/venter1.mp3",
		"sounds/venter2.mp3",
		"sounds/venter3.mp3",
	})
	v.SetDefault("audio.welcome_clip", "sounds/velkommen.mp3")
	v.SetDefault("audio.player_command", "")
}

// defaultVoiceTable maps each attitude status to voice parameters.  The
// voice steadies as Mogens warms up: low stability and high style at status
// 1 give a gruff, erratic delivery; status 5 is calm and even.
var defaultVoiceTable = []pkg.VoiceSettings{
	{Stability: 0.25, SimilarityBoost: 0.60, Style: 0.70, UseSpeakerBoost: true},
	{Stability: 0.35, SimilarityBoost: 0.65, Style: 0.55, UseSpeakerBoost: true},
	{Stability: 0.45, SimilarityBoost: 0.70, Style: 0.40, UseSpeakerBoost: true},
	{Stability: 0.55, SimilarityBoost: 0.75, Style: 0.25, UseSpeakerBoost: true},
	{Stability: 0.65, SimilarityBoost: 0.80, Style: 0.15, UseSpeakerBoost: true},
}

func (c *Config) validate() error {
	if len(c.Persona.VoiceByStatus) == 0 {
		c.Persona.VoiceByStatus = defaultVoiceTable
	}
	if len(c.Persona.VoiceByStatus) != 5 {
		return fmt.Errorf("persona.voice_by_status must contain exactly 5 entries, got %d", len(c.Persona.VoiceByStatus))
	}
	if len(c.Persona.StatusDescriptions) != 5 {
		return fmt.Errorf("persona.status_descriptions must contain exactly 5 entries, got %d", len(c.Persona.StatusDescriptions))
	}
	if c.Timing.WaitingFadeSteps < 1 {
		c.Timing.WaitingFadeSteps = 1
	}
	return nil
}

// VoiceFor returns the voice parameters for an attitude status, falling
// back to the status 1 entry for out-of-range values.
func (c *Config) VoiceFor(status int) pkg.VoiceSettings {
	if status < 1 || status > len(c.Persona.VoiceByStatus) {
		return c.Persona.VoiceByStatus[0]
	}
	return c.Persona.VoiceByStatus[status-1]
}

// DescribeStatus returns the Danish description for an attitude status.
func (c *Config) DescribeStatus(status int) string {
	if status < 1 || status > len(c.Persona.StatusDescriptions) {
		return "Ukendt status"
	}
	return c.Persona.StatusDescriptions[status-1]
}
