package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 1024

// Anthropic serves completions from the Messages API. Schemas are appended
// to the system prompt as instructions.
type Anthropic struct {
	client *anthropic.Client
}

// NewAnthropic creates an Anthropic completer.
func NewAnthropic(opts ...option.RequestOption) *Anthropic {
	client := anthropic.NewClient(opts...)
	return &Anthropic{client: &client}
}

// Complete implements Completer.
func (a *Anthropic) Complete(ctx context.Context, req Request) (Response, error) {
	system := req.System
	if req.Schema != nil {
		suffix, err := schemaInstruction(req.Schema)
		if err != nil {
			return Response{}, err
		}
		system += suffix
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, m := range req.Messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
			continue
		}
		messages = append(messages, anthropic.NewUserMessage(block))
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}
	if b.Len() == 0 {
		return Response{}, fmt.Errorf("anthropic: empty response")
	}
	return Response{Content: b.String(), Model: string(resp.Model)}, nil
}
