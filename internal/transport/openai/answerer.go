package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// systemPrompt keeps the model inside the retrieved context. The citation set
// is decided before the model runs; it only rewords the cited text.
const systemPrompt = `You are a compliance assistant for engineering specifications.
Answer strictly from the provided context. Do not introduce clause numbers,
tables or drawings that are not in the context. If the context does not answer
the question, say so.`

// Answerer rewords extractive answers via an OpenAI-compatible chat model.
type Answerer struct {
	client *openai.Client
	model  string
}

// NewAnswerer creates a chat-based answer polisher.
func NewAnswerer(apiKey, baseURL, model string) *Answerer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Answerer{client: openai.NewClientWithConfig(cfg), model: model}
}

// Polish produces a readable answer from the cited unit texts.
func (a *Answerer) Polish(ctx context.Context, question string, contexts []string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Question:\n%s\n\nContext:\n", question)
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n\n", i+1, c)
	}
	b.WriteString("Answer the question using only the context above.")

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: b.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
