package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient sends one chat-completions request per prompt.
type OpenAIClient struct {
	APIKey  string
	Model   string
	BaseURL string
	HTTP    *http.Client
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("openai model is required")
	}
	return &OpenAIClient{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultOpenAIBaseURL,
		HTTP:    http.DefaultClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.Model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	base := c.BaseURL
	if base == "" {
		base = defaultOpenAIBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	buf, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var out chatResponse
	decodeErr := json.Unmarshal(buf, &out)

	if resp.StatusCode/100 != 2 {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return "", fmt.Errorf("openai: %s: %s", resp.Status, out.Error.Message)
		}
		return "", fmt.Errorf("openai: %s", resp.Status)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("openai: assistant did not return text")
	}
	return out.Choices[0].Message.Content, nil
}

// Name returns the backend name for logs.
func (c *OpenAIClient) Name() string {
	return "openai:" + c.Model
}
