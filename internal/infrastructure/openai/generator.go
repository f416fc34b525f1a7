package openai

import (
	"context"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"
)

const (
	defaultModel    = goopenai.GPT4oMini
	requestTimeout  = 30 * time.Second
	maxReplyTokens  = 200
	replyTemp       = 0.9
	maxSourceLength = 4000
)

// Generator produces short reply texts for channel posts via the OpenAI
// chat completion API.
type Generator struct {
	client *goopenai.Client
	model  string
	logger zerolog.Logger
}

// NewGenerator creates a reply generator. Model falls back to a default
// when not configured.
func NewGenerator(apiKey, model string, logger zerolog.Logger) *Generator {
	if model == "" {
		model = defaultModel
	}
	return &Generator{
		client: goopenai.NewClient(apiKey),
		model:  model,
		logger: logger.With().Str("component", "reply_generator").Logger(),
	}
}

// Generate returns a reply for sourceText following the account's prompt.
// An empty string means no usable reply could be produced; the caller is
// expected to skip the post rather than retry.
func (g *Generator) Generate(ctx context.Context, sourceText, prompt string) string {
	sourceText = strings.TrimSpace(sourceText)
	if sourceText == "" {
		return ""
	}
	if len(sourceText) > maxSourceLength {
		sourceText = sourceText[:maxSourceLength]
	}

	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: g.model,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: prompt,
			},
			{
				Role:    goopenai.ChatMessageRoleUser,
				Content: sourceText,
			},
		},
		MaxTokens:   maxReplyTokens,
		Temperature: replyTemp,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("completion request failed")
		return ""
	}

	if len(resp.Choices) == 0 {
		g.logger.Warn().Msg("completion returned no choices")
		return ""
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
