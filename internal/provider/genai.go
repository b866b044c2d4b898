// Package provider implements text generation against the Gemini API.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("text generation provider unavailable")

// Gemini generates text through the Google GenAI API.
type Gemini struct {
	client *genai.Client
}

// NewGemini creates a Gemini-backed generator.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create GenAI client: %w", err)
	}

	return &Gemini{client: client}, nil
}

// Generate runs one prompt against the given model and returns the response
// text.
func (g *Gemini) Generate(ctx context.Context, model, prompt string, temperature float32) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx,
		model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(temperature),
		},
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", model)
	}
	return text, nil
}

// Disabled is the generator used when no API key is configured. Every call
// fails with ErrUnavailable; callers with fallbacks degrade gracefully.
type Disabled struct{}

// Generate always fails with ErrUnavailable.
func (Disabled) Generate(context.Context, string, string, float32) (string, error) {
	return "", ErrUnavailable
}
