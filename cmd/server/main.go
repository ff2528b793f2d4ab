package main

import (
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"patientsim/internal/config"
	httpserver "patientsim/internal/http"
	"patientsim/internal/llm"
	"patientsim/internal/tts"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional; defaults are built in)")
	pretty := flag.Bool("pretty", false, "human-readable console logging")
	flag.Parse()

	var log zerolog.Logger
	if *pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	// API keys may also arrive via plain environment variables.
	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.ElevenLabs.APIKey == "" {
		cfg.ElevenLabs.APIKey = os.Getenv("ELEVENLABS_API_KEY")
	}
	if cfg.OpenAI.APIKey == "" {
		log.Fatal().Msg("OPENAI_API_KEY must be set")
	}

	llmClient := llm.NewOpenAIClient(cfg.OpenAI)
	ttsClient := tts.NewClient(cfg.ElevenLabs)
	srv := httpserver.NewServer(llmClient, ttsClient, cfg, log)

	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Msg("listening")
	if err := http.ListenAndServe(addr, srv); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
