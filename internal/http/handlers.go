package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"patientsim/internal/config"
	"patientsim/internal/llm"
	"patientsim/pkg"
)

// Synthesizer is the speech backend required by the speak endpoint.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice pkg.VoiceSettings) ([]byte, error)
}

// Server bundles together the dependencies required by the proxy
// endpoints.  It implements http.Handler so it can be passed to
// http.ListenAndServe.
type Server struct {
	LLM llm.Client
	TTS Synthesizer
	Cfg *config.Config
	Log zerolog.Logger
}

// NewServer constructs a Server.
func NewServer(llmClient llm.Client, tts Synthesizer, cfg *config.Config, log zerolog.Logger) *Server {
	return &Server{LLM: llmClient, TTS: tts, Cfg: cfg, Log: log}
}

// ServeHTTP dispatches incoming requests based on the URL path.  Minimal
// routing logic is implemented here to keep dependencies light.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.setCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	switch {
	case r.URL.Path == "/api/chat" && r.Method == http.MethodPost:
		s.handleChat(w, r)
	case r.URL.Path == "/api/evaluate" && r.Method == http.MethodPost:
		s.handleEvaluate(w, r)
	case r.URL.Path == "/api/speak" && r.Method == http.MethodPost:
		s.handleSpeak(w, r)
	case r.URL.Path == "/healthz" && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", s.Cfg.Server.AllowedOrigin)
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// handleChat forwards a trainee message plus dialog history to the
// completion service and returns the persona's raw reply.  A timed-out
// upstream degrades to a canned in-character reply so the client's turn
// never hangs.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	log, done := s.requestLogger(r, "chat")

	var req pkg.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		done(http.StatusBadRequest)
		return
	}
	log.Debug().Int("dialog_len", len(req.Dialog)).Str("message", req.Message).Msg("chat request")

	ctx, cancel := context.WithTimeout(r.Context(), s.Cfg.OpenAI.ReplyTimeout)
	defer cancel()
	reply, err := s.LLM.Reply(ctx, req.Message, req.Dialog)
	if err != nil {
		if isTimeout(err) {
			log.Warn().Msg("reply timed out, sending fallback")
			s.writeJSON(w, http.StatusOK, pkg.ChatResponse{Reply: llm.FallbackReply})
			done(http.StatusOK)
			return
		}
		log.Error().Err(err).Msg("reply failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		done(http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, pkg.ChatResponse{Reply: reply})
	done(http.StatusOK)
}

// handleEvaluate scores the trainee's utterance against the persona's
// reply.  Timeouts degrade to a neutral canned evaluation.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	log, done := s.requestLogger(r, "evaluate")

	var req pkg.EvaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		done(http.StatusBadRequest)
		return
	}
	log.Debug().Str("user_message", req.UserMessage).Msg("evaluate request")

	ctx, cancel := context.WithTimeout(r.Context(), s.Cfg.OpenAI.EvalTimeout)
	defer cancel()
	evaluation, err := s.LLM.Evaluate(ctx, req.UserMessage, req.MogensReply, req.ConversationContext)
	if err != nil {
		if isTimeout(err) {
			log.Warn().Msg("evaluation timed out, sending fallback")
			s.writeJSON(w, http.StatusOK, pkg.EvaluateResponse{Evaluation: llm.FallbackEvaluation})
			done(http.StatusOK)
			return
		}
		log.Error().Err(err).Msg("evaluation failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		done(http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, pkg.EvaluateResponse{Evaluation: evaluation})
	done(http.StatusOK)
}

// handleSpeak converts persona text to speech and streams the audio back.
// There is no audio fallback: a timeout is reported as 408 and the client
// recovers by showing the text without sound.
func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	log, done := s.requestLogger(r, "speak")

	var req pkg.SpeakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		done(http.StatusBadRequest)
		return
	}
	voice := pkg.VoiceSettings{Stability: 0.5, SimilarityBoost: 0.5}
	if req.VoiceSettings != nil {
		voice = *req.VoiceSettings
	}
	log.Debug().Str("text", req.Text).Msg("speak request")

	ctx, cancel := context.WithTimeout(r.Context(), s.Cfg.ElevenLabs.Timeout)
	defer cancel()
	audio, err := s.TTS.Synthesize(ctx, req.Text, voice)
	if err != nil {
		if isTimeout(err) {
			log.Warn().Msg("synthesis timed out")
			s.writeError(w, http.StatusRequestTimeout, "timeout ved lydgenerering")
			done(http.StatusRequestTimeout)
			return
		}
		log.Error().Err(err).Msg("synthesis failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		done(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		log.Warn().Err(err).Msg("failed to write audio response")
	}
	log.Debug().Int("audio_bytes", len(audio)).Msg("audio sent")
	done(http.StatusOK)
}

// requestLogger assigns a request id and returns a logger plus a completion
// callback that records status and duration.
func (s *Server) requestLogger(r *http.Request, endpoint string) (zerolog.Logger, func(status int)) {
	requestID := uuid.New().String()[:8]
	start := time.Now()
	log := s.Log.With().Str("request_id", requestID).Str("endpoint", endpoint).Str("remote", r.RemoteAddr).Logger()
	log.Info().Msg("request started")
	return log, func(status int) {
		log.Info().Int("status", status).Dur("duration", time.Since(start)).Msg("request finished")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Log.Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, pkg.APIError{Error: msg})
}

// isTimeout reports whether err represents an upstream deadline, either a
// cancelled context or a transport-level timeout.
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err)
}
