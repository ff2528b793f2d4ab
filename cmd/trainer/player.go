package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// terminalPlayer implements core.Player for a terminal session.  Ambient
// clips are tracked by name only (the terminal has no mixer); persona
// speech is written to a temp file and handed to an external player command
// when one is configured.  With no player command, playback is a silent
// no-op so the dialog loop still works on machines without audio.
type terminalPlayer struct {
	playerCommand string
	log           zerolog.Logger

	mu          sync.Mutex
	loopClip    string
	loopVolume  float64
	oneShotClip string
	speechCmd   *exec.Cmd
}

func newTerminalPlayer(playerCommand string, log zerolog.Logger) *terminalPlayer {
	return &terminalPlayer{playerCommand: playerCommand, log: log}
}

func (p *terminalPlayer) StartLoop(clip string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopClip = clip
	p.loopVolume = 1
	p.log.Debug().Str("clip", clip).Msg("waiting loop started")
	return nil
}

func (p *terminalPlayer) SetLoopVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loopVolume = level
}

func (p *terminalPlayer) StopLoop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loopClip != "" {
		p.log.Debug().Str("clip", p.loopClip).Msg("waiting loop stopped")
		p.loopClip = ""
	}
}

func (p *terminalPlayer) PlayClip(clip string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.oneShotClip = clip
	p.log.Debug().Str("clip", clip).Msg("clip started")
	return nil
}

func (p *terminalPlayer) StopClip() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.oneShotClip != "" {
		p.log.Debug().Str("clip", p.oneShotClip).Msg("clip stopped")
		p.oneShotClip = ""
	}
}

// PlaySpeech saves the synthesized audio and, when a player command is
// configured, launches it.  It returns once playback has been started, not
// when it finishes.
func (p *terminalPlayer) PlaySpeech(audio []byte) error {
	path := filepath.Join(os.TempDir(), fmt.Sprintf("patientsim-%d.mp3", time.Now().UnixNano()))
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return fmt.Errorf("write speech audio: %w", err)
	}
	p.log.Debug().Str("path", path).Int("bytes", len(audio)).Msg("speech audio saved")
	if p.playerCommand == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.speechCmd != nil && p.speechCmd.Process != nil {
		_ = p.speechCmd.Process.Kill()
	}
	cmd := exec.Command(p.playerCommand, path)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start audio player: %w", err)
	}
	p.speechCmd = cmd
	go func() {
		_ = cmd.Wait()
		_ = os.Remove(path)
	}()
	return nil
}
