package core

import "patientsim/pkg"

// Transcript is the append-only ordered log of a session's utterances.
// Insertion order is the canonical conversation order; DisplayList provides
// the reverse-chronological projection the frontends render.  After append,
// only an utterance's Feedback field is ever mutated, exactly once.
type Transcript struct {
	utterances []*pkg.Utterance
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds an utterance and returns it.
func (t *Transcript) Append(speaker pkg.Speaker, text string) *pkg.Utterance {
	u := &pkg.Utterance{Speaker: speaker, Text: text}
	t.utterances = append(t.utterances, u)
	return u
}

// Len returns the number of utterances in the transcript.
func (t *Transcript) Len() int {
	return len(t.utterances)
}

// LastUnannotatedUserUtterance returns the most recent trainee utterance
// without feedback, scanning in reverse insertion order, or nil when none
// exists.
func (t *Transcript) LastUnannotatedUserUtterance() *pkg.Utterance {
	for i := len(t.utterances) - 1; i >= 0; i-- {
		u := t.utterances[i]
		if u.Speaker == pkg.SpeakerUser && u.Feedback == nil {
			return u
		}
	}
	return nil
}

// History returns a chronological copy of the transcript for service
// payloads.
func (t *Transcript) History() []pkg.Utterance {
	out := make([]pkg.Utterance, len(t.utterances))
	for i, u := range t.utterances {
		out[i] = *u
	}
	return out
}

// LastN returns a chronological copy of at most the n most recent
// utterances.
func (t *Transcript) LastN(n int) []pkg.Utterance {
	start := len(t.utterances) - n
	if start < 0 {
		start = 0
	}
	out := make([]pkg.Utterance, 0, len(t.utterances)-start)
	for _, u := range t.utterances[start:] {
		out = append(out, *u)
	}
	return out
}

// DisplayList returns a reverse-chronological copy (most recent first).
func (t *Transcript) DisplayList() []pkg.Utterance {
	out := make([]pkg.Utterance, len(t.utterances))
	for i, u := range t.utterances {
		out[len(t.utterances)-1-i] = *u
	}
	return out
}
