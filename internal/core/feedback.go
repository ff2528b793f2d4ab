package core

import "patientsim/pkg"

// Quality buckets derived from the 0-10 evaluation score.  They are a
// presentation concern only; no gating logic depends on them.
const (
	QualityExcellent = "excellent"
	QualityGood      = "good"
	QualityAverage   = "average"
	QualityPoor      = "poor"
)

// Annotate parses a raw evaluation text into a Feedback value.  Extraction
// never fails: missing tokens degrade to the neutral score and empty
// fields.
func Annotate(raw string) *pkg.Feedback {
	fb := &pkg.Feedback{
		Raw:       raw,
		Score:     ExtractScore(raw),
		Attitude:  ExtractAttitude(raw),
		Strengths: extractLabelledLine(raw, "Styrker:"),
		Focus:     extractLabelledLine(raw, "Fokus:"),
	}
	if status, ok := ExtractStatus(raw); ok {
		fb.ProposedStatus = &status
	}
	return fb
}

// QualityClass maps a 0-10 score to its coarse quality bucket.
func QualityClass(score int) string {
	switch {
	case score >= 9:
		return QualityExcellent
	case score >= 7:
		return QualityGood
	case score >= 5:
		return QualityAverage
	default:
		return QualityPoor
	}
}

// AttachFeedback sets fb on the latest unannotated trainee utterance in the
// transcript.  The result is discarded silently when no such utterance
// exists; feedback is never overwritten.
func AttachFeedback(t *Transcript, fb *pkg.Feedback) *pkg.Utterance {
	u := t.LastUnannotatedUserUtterance()
	if u == nil {
		return nil
	}
	u.Feedback = fb
	return u
}
