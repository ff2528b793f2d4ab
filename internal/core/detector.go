package core

import "strings"

// Detector watches the persona's status and text stream for terminal
// conditions.  Goal-reached and conversation-ended are distinct signals;
// each fires at most once per session.
type Detector struct {
	closingPhrases []string
	goalFired      bool
	endFired       bool
}

// NewDetector returns a detector matching the given closing phrases
// (case-insensitively) against persona text.
func NewDetector(closingPhrases []string) *Detector {
	return &Detector{closingPhrases: closingPhrases}
}

// CheckGoalReached reports true the first time the status arrives at 5.
// Later arrivals, including after the status dropped and came back, do not
// re-fire.
func (d *Detector) CheckGoalReached(status int) bool {
	if status == 5 && !d.goalFired {
		d.goalFired = true
		return true
	}
	return false
}

// CheckConversationEnded reports true the first time persona text contains
// one of the closing phrases.
func (d *Detector) CheckConversationEnded(personaText string) bool {
	if d.endFired {
		return false
	}
	lower := strings.ToLower(personaText)
	for _, phrase := range d.closingPhrases {
		if phrase == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(phrase)) {
			d.endFired = true
			return true
		}
	}
	return false
}
