package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codpage_back_end/internal/apperrors"
)

// LLMClient parle à une API de chat compatible OpenAI.
type LLMClient struct {
	api   *apiClient
	model string
}

func NewLLMClient(baseURL, apiKey, model string, timeout time.Duration) *LLMClient {
	return &LLMClient{
		api: newAPIClient("llm", baseURL, timeout, map[string]string{
			"Authorization": "Bearer " + apiKey,
		}),
		model: model,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete renvoie le texte brut de la réponse ; le décodage JSON est laissé à l'appelant.
func (c *LLMClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	raw, err := c.api.postJSON(ctx, "/chat/completions", chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Temperature:    0.7,
		ResponseFormat: map[string]string{"type": "json_object"},
	}, nil)
	if err != nil {
		return "", err
	}

	var res chatResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		return "", apperrors.Transient("llm", fmt.Errorf("réponse illisible: %w", err))
	}
	if len(res.Choices) == 0 {
		return "", apperrors.Transient("llm", errors.New("aucune réponse générée"))
	}
	return res.Choices[0].Message.Content, nil
}
