package pkg

// Speaker identifies who authored an utterance.  The string values match
// the wire format used by the browser and terminal frontends ("Dig" for the
// trainee, "Mogens" for the simulated patient), so they can be marshalled
// into service payloads unchanged.
type Speaker string

const (
	SpeakerUser    Speaker = "Dig"
	SpeakerPersona Speaker = "Mogens"
)

// Feedback is the parsed result of evaluating one trainee utterance.  Raw
// preserves the evaluation service's full text; the remaining fields are
// extracted from its bracket tokens and labelled lines.
type Feedback struct {
	Raw string `json:"raw"`
	// Score is the 0-10 communication score; 5 when no token was found.
	Score int `json:"score"`
	// ProposedStatus is the evaluation's attitude suggestion, if any.
	ProposedStatus *int   `json:"proposed_status,omitempty"`
	Attitude       string `json:"attitude,omitempty"`
	Strengths      string `json:"strengths,omitempty"`
	Focus          string `json:"focus,omitempty"`
}

// Utterance is one entry in a session transcript.  Entries are append-only:
// after creation only Feedback is ever set, at most once, and only on
// trainee utterances.
type Utterance struct {
	Speaker  Speaker   `json:"sender"`
	Text     string    `json:"text"`
	Feedback *Feedback `json:"feedback,omitempty"`
}

// ChatRequest is the payload for the reply endpoint.  Dialog carries the
// full conversation history, most recent last; Message repeats the latest
// trainee utterance.
type ChatRequest struct {
	Message string      `json:"message"`
	Dialog  []Utterance `json:"dialog"`
}

// ChatResponse carries the persona's raw reply, which may end with an
// embedded attitude token such as "[Status: 2]".
type ChatResponse struct {
	Reply string `json:"reply"`
}

// EvaluateRequest asks the evaluation endpoint to score the trainee's last
// utterance against the persona's reply, given recent conversation context.
type EvaluateRequest struct {
	UserMessage         string      `json:"userMessage"`
	MogensReply         string      `json:"mogensReply"`
	ConversationContext []Utterance `json:"conversationContext"`
}

// EvaluateResponse carries the raw evaluation text, containing a
// "[Score: N/10]" token and optional "[Status: N]" / "[Attitude: ...]"
// tokens plus free-text commentary.
type EvaluateResponse struct {
	Evaluation string `json:"evaluation"`
}

// VoiceSettings are the synthesis tuning parameters forwarded to the
// text-to-speech provider.  They are derived from the persona's current
// attitude, not persisted.
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

// SpeakRequest is the payload for the speech synthesis endpoint.  The
// response body is binary audio (audio/mpeg), not JSON.
type SpeakRequest struct {
	Text          string         `json:"text"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
}

// APIError is the JSON error body returned by the proxy endpoints.
type APIError struct {
	Error string `json:"error"`
}
