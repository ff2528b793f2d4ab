package core

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Player is the audio output backend.  The AudioController is its only
// caller; no other component may start or stop audio directly.  PlaySpeech
// must return once playback has begun (or failed), since the turn sequencer
// treats playback start as its synchronization point.
type Player interface {
	// StartLoop plays an ambient clip in a loop at full volume.
	StartLoop(clip string) error
	// SetLoopVolume adjusts the looping clip's volume in [0,1].
	SetLoopVolume(level float64)
	// StopLoop stops the looping clip and releases it.
	StopLoop()
	// PlayClip plays a one-shot clip (the welcome sound).
	PlayClip(clip string) error
	// StopClip stops the one-shot clip regardless of progress.
	StopClip()
	// PlaySpeech plays synthesized persona speech, returning at start.
	PlaySpeech(audio []byte) error
}

type waitingState int

const (
	waitingIdle waitingState = iota
	waitingPlaying
	waitingFading
)

// AudioController manages the overlapping lifecycle of the waiting loop,
// the welcome sound and persona speech.  At most one waiting sound and one
// welcome sound are active at a time; persona speech occupies its own slot.
// Audio failures are logged and never propagate into turn handling.
type AudioController struct {
	player       Player
	waitingClips []string
	welcomeClip  string
	rng          *rand.Rand
	log          zerolog.Logger

	mu            sync.Mutex
	state         waitingState
	fadeCancel    chan struct{}
	welcomeUsed   bool
	welcomeActive bool
}

// NewAudioController wires a controller to its player and clip inventory.
func NewAudioController(player Player, waitingClips []string, welcomeClip string, log zerolog.Logger) *AudioController {
	return &AudioController{
		player:       player,
		waitingClips: waitingClips,
		welcomeClip:  welcomeClip,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		log:          log,
	}
}

// StartWaiting stops any existing waiting sound, picks one of the waiting
// clips uniformly at random and plays it looped.
func (c *AudioController) StartWaiting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFadeLocked()
	if c.state != waitingIdle {
		c.player.StopLoop()
	}
	if len(c.waitingClips) == 0 {
		c.state = waitingIdle
		return
	}
	clip := c.waitingClips[c.rng.Intn(len(c.waitingClips))]
	c.player.SetLoopVolume(1)
	if err := c.player.StartLoop(clip); err != nil {
		c.log.Warn().Err(err).Str("clip", clip).Msg("waiting loop failed to start")
		c.state = waitingIdle
		return
	}
	c.state = waitingPlaying
}

// StopWaiting stops the waiting loop immediately, superseding any fade in
// flight.
func (c *AudioController) StopWaiting() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelFadeLocked()
	if c.state != waitingIdle {
		c.player.StopLoop()
		c.state = waitingIdle
	}
}

// StopWaitingWithFade ramps the waiting loop's volume linearly to zero over
// the given duration in the given number of discrete steps, then stops it.
// A concurrent StopWaiting call cancels the ramp.
func (c *AudioController) StopWaitingWithFade(duration time.Duration, steps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != waitingPlaying {
		return
	}
	if steps < 1 {
		steps = 1
	}
	interval := duration / time.Duration(steps)
	// A zero or negative ramp degenerates to an immediate stop; a ticker
	// cannot run on a non-positive interval.
	if interval <= 0 {
		c.player.SetLoopVolume(0)
		c.player.StopLoop()
		c.state = waitingIdle
		return
	}
	cancel := make(chan struct{})
	c.fadeCancel = cancel
	c.state = waitingFading

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 1; i <= steps; i++ {
			select {
			case <-cancel:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.fadeCancel != cancel {
					c.mu.Unlock()
					return
				}
				c.player.SetLoopVolume(1 - float64(i)/float64(steps))
				if i == steps {
					c.player.StopLoop()
					c.state = waitingIdle
					c.fadeCancel = nil
				}
				c.mu.Unlock()
			}
		}
	}()
}

func (c *AudioController) cancelFadeLocked() {
	if c.fadeCancel != nil {
		close(c.fadeCancel)
		c.fadeCancel = nil
	}
}

// PlayWelcome plays the welcome sound once per session.  It must be called
// on an explicit user gesture; autoplay policies forbid unprompted audio.
func (c *AudioController) PlayWelcome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.welcomeUsed || c.welcomeClip == "" {
		return
	}
	c.welcomeUsed = true
	if err := c.player.PlayClip(c.welcomeClip); err != nil {
		c.log.Warn().Err(err).Msg("welcome sound failed")
		return
	}
	c.welcomeActive = true
}

// StopWelcome forcibly stops the welcome sound regardless of its playback
// progress.  Called the moment the trainee submits their first turn.
func (c *AudioController) StopWelcome() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.welcomeActive {
		c.player.StopClip()
		c.welcomeActive = false
	}
}

// PlaySpeech plays synthesized persona speech through the single speech
// slot, returning once playback has started.  Failures are logged and
// reported but must not block the rest of the turn.
func (c *AudioController) PlaySpeech(audio []byte) error {
	if err := c.player.PlaySpeech(audio); err != nil {
		c.log.Warn().Err(err).Msg("speech playback failed")
		return err
	}
	return nil
}
