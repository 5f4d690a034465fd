package analyzer

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/civica-cloud/agendex/internal/domain/query"
)

const extractionPrompt = `You are the query analyzer of a meeting-transcript search system.
Extract the following from the user's question and answer with JSON only:

1. "speaker": the speaker the question asks about, as title plus name
   (e.g. "Commissioner Park"). null if the question names no speaker.
2. "topic": the core subject keywords. Single nouns are fine ("budget",
   "sinkhole", "AI"). null if only pronouns or demonstratives remain.
   Never an empty string.
3. "meeting_date": the meeting date in YYYY-MM-DD. null if absent.

Answer with a single JSON object, no prose.`

// LLM extracts hints via a chat completion with JSON output. Failures
// surface as errors; the pipeline recovers with an empty hint.
type LLM struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// LLMConfig holds the chat-based analyzer settings.
type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewLLM creates a chat-based analyzer.
func NewLLM(cfg *LLMConfig) *LLM {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &LLM{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// Analyze asks the model for a structured hint and reports the chat
// token spend.
func (a *LLM) Analyze(ctx context.Context, text string) (query.Hint, query.AnalysisUsage, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: extractionPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return query.Hint{}, query.AnalysisUsage{}, fmt.Errorf("analyze query: %w", err)
	}
	usage := query.AnalysisUsage{Model: a.model, Tokens: resp.Usage.TotalTokens}
	if len(resp.Choices) == 0 {
		return query.Hint{}, usage, fmt.Errorf("analyze query: empty completion")
	}

	var extracted struct {
		Speaker     *string `json:"speaker"`
		Topic       *string `json:"topic"`
		MeetingDate *string `json:"meeting_date"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &extracted); err != nil {
		return query.Hint{}, usage, fmt.Errorf("parse analyzer output: %w", err)
	}

	topic := text
	if extracted.Topic != nil && *extracted.Topic != "" {
		topic = *extracted.Topic
	}
	hint := query.NewHint(deref(extracted.Speaker), deref(extracted.MeetingDate), topic)

	a.logger.Debug("query analyzed",
		zap.String("speaker", hint.Speaker()),
		zap.String("date", hint.Date()),
		zap.String("topic", hint.Topic()),
	)
	return hint, usage, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
