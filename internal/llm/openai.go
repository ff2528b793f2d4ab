package llm

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	"patientsim/internal/config"
	"patientsim/pkg"
)

// Client defines the completion-service methods required by the proxy
// endpoints: persona reply generation and utterance evaluation.
type Client interface {
	Reply(ctx context.Context, message string, dialog []pkg.Utterance) (string, error)
	Evaluate(ctx context.Context, userMessage, personaReply string, conversationContext []pkg.Utterance) (string, error)
}

// OpenAIClient calls the OpenAI chat completion API for both persona
// replies and evaluations.  Models and sampling parameters come from
// configuration; the defaults favor a fast small model with short
// completions to keep turn latency low.
type OpenAIClient struct {
	client *openai.Client
	cfg    config.OpenAIConfig
}

// NewOpenAIClient constructs an OpenAI-backed client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	return &OpenAIClient{
		client: openai.NewClient(cfg.APIKey),
		cfg:    cfg,
	}
}

// Reply sends the Mogens system prompt plus the dialog history to the chat
// completion API and returns the raw reply, attitude token included.
func (c *OpenAIClient) Reply(ctx context.Context, message string, dialog []pkg.Utterance) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(dialog)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: MogensSystemPrompt,
	})
	msgs = append(msgs, dialogMessages(dialog)...)
	// The dialog may already end with the current message; avoid sending
	// the trainee's utterance twice.
	if len(dialog) == 0 || dialog[len(dialog)-1].Speaker != pkg.SpeakerUser || dialog[len(dialog)-1].Text != message {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    msgs,
		MaxTokens:   c.cfg.ChatMaxTokens,
		Temperature: c.cfg.ChatTemperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// Evaluate scores the trainee's utterance against the persona's reply and
// the recent conversation context, returning the raw evaluation text with
// its bracketed score token.
func (c *OpenAIClient) Evaluate(ctx context.Context, userMessage, personaReply string, conversationContext []pkg.Utterance) (string, error) {
	if c.client == nil {
		return "", errors.New("openai client not initialized")
	}
	msgs := make([]openai.ChatCompletionMessage, 0, len(conversationContext)+2)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: EvaluationSystemPrompt,
	})
	msgs = append(msgs, dialogMessages(conversationContext)...)
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role: openai.ChatMessageRoleUser,
		Content: `Evaluér denne ytring fra sundhedsprofessionellen: "` + userMessage + `"

Patientens forrige svar: "` + personaReply + `"

Vurder om sundhedsprofessionellens ytring er effektiv til at bygge videre på patientens svar og følger kommunikationsprincipperne.`,
	})

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.cfg.ChatModel,
		Messages:    msgs,
		MaxTokens:   c.cfg.EvalMaxTokens,
		Temperature: c.cfg.EvalTemperature,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

// dialogMessages maps transcript utterances onto chat roles: the trainee
// speaks as "user", the persona as "assistant".
func dialogMessages(dialog []pkg.Utterance) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(dialog))
	for _, u := range dialog {
		role := openai.ChatMessageRoleAssistant
		if u.Speaker == pkg.SpeakerUser {
			role = openai.ChatMessageRoleUser
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: u.Text})
	}
	return msgs
}
