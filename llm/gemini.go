package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// maxErrorBody caps how much of a failed response body is kept in errors.
const maxErrorBody = 512

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

// GeminiGenerator calls the generateContent method of a Gemini-style endpoint.
type GeminiGenerator struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// NewGeminiGenerator creates a generator for baseURL (for example
// https://generativelanguage.googleapis.com/v1beta) and model.
func NewGeminiGenerator(baseURL, model, apiKey string, httpClient *http.Client) *GeminiGenerator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &GeminiGenerator{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// Name implements Generator.
func (g *GeminiGenerator) Name() string { return "gemini" }

func (g *GeminiGenerator) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
}

// Generate posts {"contents":[{"parts":[{"text":prompt}]}]} and returns
// candidates[0].content.parts[0].text.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var envelope geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if len(envelope.Candidates) == 0 || envelope.Candidates[0].Content == nil ||
		len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: no candidate text", ErrMalformedEnvelope)
	}
	return envelope.Candidates[0].Content.Parts[0].Text, nil
}
