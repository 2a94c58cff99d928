package inference

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// implements Client using Google Gemini
type GeminiClient struct {
	client  *genai.Client
	model   string
	options Options
}

func NewGeminiClient(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &GeminiClient{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) Complete(
	ctx context.Context,
	req Request,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.callTimeout())
	defer cancel()

	parts := []*genai.Part{
		genai.NewPartFromText(req.Prompt),
	}
	if len(req.Images) > 0 {
		parts = append(parts, genai.NewPartFromBytes(req.Images[0], "image/jpeg"))
	}

	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.JSONMode {
		config.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if result == nil || len(result.Candidates) == 0 {
		return "", fmt.Errorf("empty response from backend")
	}

	var responseText string
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				responseText += part.Text
			}
		}
		if responseText != "" {
			break
		}
	}

	if responseText == "" {
		return "", fmt.Errorf("no text in backend response")
	}

	return responseText, nil
}
