package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator sends the prompt as a single user message to an
// OpenAI-compatible chat completions endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator. An empty baseURL keeps the
// library default.
func NewOpenAIGenerator(apiKey, baseURL, model string, httpClient *http.Client) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

// Name implements Generator.
func (g *OpenAIGenerator) Name() string { return "openai" }

// Generate implements Generator.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", &StatusError{StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", &StatusError{StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
		}
		return "", fmt.Errorf("request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedEnvelope)
	}
	return resp.Choices[0].Message.Content, nil
}
