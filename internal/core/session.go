package core

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"

	"patientsim/internal/config"
	"patientsim/pkg"
)

// Sentinel errors returned by SubmitTurn.  A rejected submission is not a
// fault: input is disabled while a turn is in flight, so a second submit is
// simply a no-op for the caller to ignore.
var (
	ErrEmptyUtterance = errors.New("utterance is empty")
	ErrTurnInFlight   = errors.New("a turn is already in flight")
)

// Transcript error notes, matching the browser frontend's annotations.
const (
	noteReplyFailed     = "(Fejl i kommunikation med serveren)"
	noteSynthesisFailed = "(Kunne ikke hente lyd fra ElevenLabs)"
)

// ReplyService generates the persona's next reply from the trainee's
// message and the full dialog history.  The raw reply may carry an embedded
// "[Status: N]" token.
type ReplyService interface {
	Reply(ctx context.Context, message string, dialog []pkg.Utterance) (string, error)
}

// EvaluationService scores the trainee's utterance against the persona's
// clean reply and recent conversation context.
type EvaluationService interface {
	Evaluate(ctx context.Context, userMessage, personaReply string, context []pkg.Utterance) (string, error)
}

// SynthesisService turns persona text into playable audio.
type SynthesisService interface {
	Synthesize(ctx context.Context, text string, voice pkg.VoiceSettings) ([]byte, error)
}

// evaluationContextSize is how many recent utterances accompany an
// evaluation request.
const evaluationContextSize = 5

// Session owns all mutable state of one training conversation: the
// transcript, the attitude status, the audio controller and the input lock.
// Each session is independent; there is no package-level state.
//
// SubmitTurn drives exactly one round trip and blocks until the turn has
// settled.  Side effects are reported through the event sink, never through
// a rendering surface.
type Session struct {
	ID string

	cfg   *config.Config
	reply ReplyService
	eval  EvaluationService
	synth SynthesisService
	audio *AudioController
	sink  EventSink
	log   zerolog.Logger
	rng   *rand.Rand
	sleep func(time.Duration) // stubbed in tests

	mu         sync.Mutex
	transcript *Transcript
	status     *StatusModel
	detector   *Detector
	inFlight   bool
	userTurns  int
}

// NewSession assembles a session from its collaborators.  The sink may be
// nil when no presentation layer is attached.
func NewSession(cfg *config.Config, reply ReplyService, eval EvaluationService, synth SynthesisService, audio *AudioController, sink EventSink, log zerolog.Logger) *Session {
	if sink == nil {
		sink = func(Event) {}
	}
	id := uuid.New().String()
	return &Session{
		ID:         id,
		cfg:        cfg,
		reply:      reply,
		eval:       eval,
		synth:      synth,
		audio:      audio,
		sink:       sink,
		log:        log.With().Str("session", id).Logger(),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      time.Sleep,
		transcript: NewTranscript(),
		status:     NewStatusModel(),
		detector:   NewDetector(cfg.Persona.ClosingPhrases),
	}
}

// Status returns the persona's current attitude status.
func (s *Session) Status() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.Current()
}

// Transcript returns the reverse-chronological display projection of the
// conversation so far.
func (s *Session) Transcript() []pkg.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.DisplayList()
}

// Start plays the welcome sound.  It must be called from an explicit user
// gesture; it is a no-op after the first call.
func (s *Session) Start() {
	s.audio.PlayWelcome()
}

// SubmitTurn runs one full conversational turn: append the trainee's
// utterance, fetch the persona's reply, then synthesize speech and evaluate
// the utterance in parallel.  It blocks until both parallel calls have
// settled and, on the success path, playback has been armed.  Every path
// out of this method releases the input lock.
func (s *Session) SubmitTurn(ctx context.Context, userText string) error {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return ErrEmptyUtterance
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrTurnInFlight
	}
	s.inFlight = true
	firstTurn := s.userTurns == 0
	s.userTurns++
	history := s.transcript.History()
	userUtt := s.transcript.Append(pkg.SpeakerUser, userText)
	s.emitLocked(Event{Type: EventUserUtterance, Utterance: userUtt})
	s.emitLocked(Event{Type: EventInputLocked})
	s.mu.Unlock()

	// The welcome sound never outlives the first submission.
	if firstTurn {
		s.audio.StopWelcome()
	}

	// Waiting feedback is best-effort UX: armed after a randomized delay so
	// near-instant replies never flash the loop, and skipped entirely once
	// the reply has arrived.
	replyDone := false
	waitingStarted := false
	waitingTimer := time.AfterFunc(s.waitingDelay(firstTurn), func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if replyDone {
			return
		}
		s.audio.StartWaiting()
		waitingStarted = true
		s.emitLocked(Event{Type: EventWaitingStarted})
	})

	replyCtx, cancel := context.WithTimeout(ctx, s.cfg.OpenAI.ReplyTimeout)
	rawReply, err := s.reply.Reply(replyCtx, userText, history)
	cancel()

	s.mu.Lock()
	replyDone = true
	waitingTimer.Stop()
	if err != nil {
		// A failed reply aborts the turn: no synthesis or evaluation is
		// attempted and the UI must not stay locked.
		s.audio.StopWaiting()
		if waitingStarted {
			s.emitLocked(Event{Type: EventWaitingStopped})
		}
		s.appendErrorNoteLocked(noteReplyFailed)
		s.unlockLocked()
		s.mu.Unlock()
		s.log.Error().Err(err).Msg("reply call failed, turn aborted")
		return err
	}
	replyStatus, replyStatusOK := ExtractStatus(rawReply)
	cleanReply := StripStatus(rawReply)
	voice := s.cfg.VoiceFor(s.status.Current())
	evalContext := s.transcript.LastN(evaluationContextSize)
	s.mu.Unlock()

	var replyProposed *int
	if replyStatusOK {
		replyProposed = &replyStatus
	}

	// Synthesis and evaluation run back-to-back and are joined with an
	// all-settled pattern: one failing must not cancel or delay the other.
	var (
		wg       conc.WaitGroup
		speech   []byte
		synthErr error
	)
	wg.Go(func() {
		synthCtx, cancel := context.WithTimeout(ctx, s.cfg.ElevenLabs.Timeout)
		defer cancel()
		speech, synthErr = s.synth.Synthesize(synthCtx, cleanReply, voice)
		s.handleSynthesisSettled(cleanReply, synthErr, &waitingStarted)
	})
	wg.Go(func() {
		evalCtx, cancel := context.WithTimeout(ctx, s.cfg.OpenAI.EvalTimeout)
		defer cancel()
		evaluation, evalErr := s.eval.Evaluate(evalCtx, userText, cleanReply, evalContext)
		s.handleEvaluationSettled(evaluation, evalErr, firstTurn, replyProposed)
	})
	wg.Wait()

	// Arm playback only after both calls settled, then hand input back the
	// moment speech starts.
	if synthErr == nil {
		s.sleep(s.cfg.Timing.SpeechStartDelay)
		if err := s.audio.PlaySpeech(speech); err == nil {
			s.mu.Lock()
			s.emitLocked(Event{Type: EventSpeechStarted})
			s.mu.Unlock()
		}
	}

	s.mu.Lock()
	s.unlockLocked()
	s.mu.Unlock()
	return nil
}

// handleSynthesisSettled applies the synthesis outcome: on success the
// waiting loop fades out and the persona utterance joins the transcript (at
// synthesis-success, independent of actual playback); on failure the loop
// stops at once and a recoverable note is surfaced instead.  waitingStarted
// is shared per-turn state guarded by s.mu: the stop event is only emitted
// when a start event went out.
func (s *Session) handleSynthesisSettled(cleanReply string, synthErr error, waitingStarted *bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if synthErr != nil {
		s.audio.StopWaiting()
		if *waitingStarted {
			s.emitLocked(Event{Type: EventWaitingStopped})
		}
		s.appendErrorNoteLocked(noteSynthesisFailed)
		s.log.Warn().Err(synthErr).Msg("speech synthesis failed")
		return
	}
	s.audio.StopWaitingWithFade(s.cfg.Timing.WaitingFade, s.cfg.Timing.WaitingFadeSteps)
	if *waitingStarted {
		s.emitLocked(Event{Type: EventWaitingStopped})
	}
	personaUtt := s.transcript.Append(pkg.SpeakerPersona, cleanReply)
	s.emitLocked(Event{Type: EventPersonaUtterance, Utterance: personaUtt})
	if s.detector.CheckConversationEnded(cleanReply) {
		s.emitLocked(Event{Type: EventConversationEnded})
	}
}

// handleEvaluationSettled attaches feedback to the originating trainee
// utterance and folds the evaluation into the attitude status.  A failed or
// malformed evaluation degrades to "no change"; it never fails the turn.
func (s *Session) handleEvaluationSettled(evaluation string, evalErr error, firstTurn bool, replyProposed *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if evalErr != nil {
		s.log.Warn().Err(evalErr).Msg("evaluation failed, status unchanged")
		return
	}
	fb := Annotate(evaluation)
	if u := AttachFeedback(s.transcript, fb); u != nil {
		s.emitLocked(Event{Type: EventFeedbackAttached, Utterance: u})
	}
	proposed := fb.ProposedStatus
	if proposed == nil {
		proposed = replyProposed
	}
	before := s.status.Current()
	after := s.status.Apply(proposed, firstTurn, fb.Score)
	if after != before {
		s.emitLocked(Event{Type: EventStatusChanged, Status: after})
	}
	if s.detector.CheckGoalReached(after) {
		s.emitLocked(Event{Type: EventGoalReached, Status: after})
	}
}

// waitingDelay draws the randomized delay before the waiting loop starts.
func (s *Session) waitingDelay(firstTurn bool) time.Duration {
	min, max := s.cfg.Timing.LaterWaitDelayMin, s.cfg.Timing.LaterWaitDelayMax
	if firstTurn {
		min, max = s.cfg.Timing.FirstWaitDelayMin, s.cfg.Timing.FirstWaitDelayMax
	}
	if max <= min {
		return min
	}
	return min + time.Duration(s.rng.Int63n(int64(max-min)))
}

func (s *Session) appendErrorNoteLocked(note string) {
	s.emitLocked(Event{Type: EventTurnError, Note: note})
}

func (s *Session) unlockLocked() {
	s.inFlight = false
	s.emitLocked(Event{Type: EventInputUnlocked})
}

// emitLocked delivers an event while holding s.mu, so sinks observe events
// in a single serialized stream.
func (s *Session) emitLocked(ev Event) {
	s.sink(ev)
}
