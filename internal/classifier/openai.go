package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/sashabaranov/go-openai"
)

// maxAnswerTokens caps the completion: the answer is one event name or the
// None literal, never prose.
const maxAnswerTokens = 50

// OpenAI is the production CompletionClient, speaking the OpenAI
// chat-completion protocol (OpenRouter-compatible via BaseURL).
type OpenAI struct {
	client     *openai.Client
	model      string
	configured bool
}

func NewOpenAI(apiKey, baseURL, model string) *OpenAI {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		configured: apiKey != "",
	}
}

// Configured reports whether an API key was supplied. Without one, Complete
// fails without attempting a call.
func (o *OpenAI) Configured() bool { return o.configured }

func (o *OpenAI) Complete(ctx context.Context, prompt string) (string, error) {
	if !o.configured {
		return "", errors.New("openai api key not configured")
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		// The client omits a literal zero temperature; smallest nonzero is
		// the accepted way to pin deterministic decoding.
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   maxAnswerTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
