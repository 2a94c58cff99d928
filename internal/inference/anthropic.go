package inference

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// implements Client using Anthropic Claude. Claude has no constrained
// JSON output mode, so JSONMode requests lean on the prompt instructions
// plus response cleaning.
type AnthropicClient struct {
	client  anthropic.Client
	model   anthropic.Model
	options Options
}

func NewAnthropicClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	model := anthropic.Model(opts.Model)
	if opts.Model == "" {
		model = anthropic.ModelClaudeHaiku4_5
	}

	return &AnthropicClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *AnthropicClient) Model() string {
	return string(c.model)
}

func (c *AnthropicClient) Complete(
	ctx context.Context,
	req Request,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.callTimeout())
	defer cancel()

	blocks := []anthropic.ContentBlockParamUnion{
		anthropic.NewTextBlock(req.Prompt),
	}
	if len(req.Images) > 0 {
		blocks = append(blocks, anthropic.NewImageBlockBase64(
			"image/jpeg",
			base64.StdEncoding.EncodeToString(req.Images[0]),
		))
	}

	message, err := c.client.Messages.New(
		ctx,
		anthropic.MessageNewParams{
			Model:       c.model,
			MaxTokens:   4096,
			Temperature: anthropic.Float(req.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(blocks...),
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if message == nil || len(message.Content) == 0 {
		return "", fmt.Errorf("empty response from backend")
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText += block.Text
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text in backend response")
	}

	return responseText, nil
}
