package inference

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// implements Client using the OpenAI Chat Completions API. With a custom
// base URL this also serves any OpenAI-compatible backend, most notably a
// local Ollama instance.
type OpenAIClient struct {
	client  openai.Client
	model   string
	options Options
}

func NewOpenAIClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	model := opts.Model
	if model == "" {
		model = "gpt-5-mini"
	}

	return &OpenAIClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) Complete(
	ctx context.Context,
	req Request,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.callTimeout())
	defer cancel()

	var message openai.ChatCompletionMessageParamUnion
	if len(req.Images) > 0 {
		dataURL := "data:image/jpeg;base64," +
			base64.StdEncoding.EncodeToString(req.Images[0])
		parts := []openai.ChatCompletionContentPartUnionParam{
			openai.TextContentPart(req.Prompt),
			openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: dataURL,
			}),
		}
		message = openai.UserMessage(parts)
	} else {
		message = openai.UserMessage(req.Prompt)
	}

	params := openai.ChatCompletionNewParams{
		Messages:    []openai.ChatCompletionMessageParamUnion{message},
		Model:       c.model,
		Temperature: openai.Float(req.Temperature),
	}

	if req.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if completion == nil || len(completion.Choices) == 0 {
		return "", fmt.Errorf("empty response from backend")
	}

	responseText := completion.Choices[0].Message.Content
	if responseText == "" {
		return "", fmt.Errorf("no text in backend response")
	}

	return responseText, nil
}
