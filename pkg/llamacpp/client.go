// Package llamacpp is a client.VisionClient for llama.cpp's OpenAI compatible
// server.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/menta2k/thumbnailer/pkg/client"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultURL is llama-server's default listen address.
const DefaultURL = "http://localhost:8080"

const chatEndpoint = "/v1/chat/completions"

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Message is an OpenAI style chat message. Content is a string or a list of
// ContentPart.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// NewClient creates a client for serverURL, DefaultURL when empty.
func NewClient(serverURL string, logger *slog.Logger) *Client {
	if serverURL == "" {
		serverURL = DefaultURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimSuffix(serverURL, "/"),
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		log:        logger,
	}
}

func (c *Client) SimpleQuery(ctx context.Context, req client.Request) (string, error) {
	return c.complete(ctx, req, 2048, 0.9)
}

func (c *Client) AnalyzeImage(ctx context.Context, req client.Request) (*types.AnalysisResult, error) {
	text, err := c.complete(ctx, req, 4096, 0.8)
	if err != nil {
		return nil, err
	}
	return client.ParseAnalysis(text), nil
}

func (c *Client) complete(ctx context.Context, req client.Request, maxTokens int, topP float64) (string, error) {
	ctx, cancel := client.WithDefaultTimeout(ctx)
	defer cancel()

	content := []ContentPart{{Type: "text", Text: req.Prompt}}
	if req.ImageB64 != "" {
		content = append(content, ContentPart{
			Type:     "image_url",
			ImageURL: &ImageURL{URL: "data:" + req.ContentType() + ";base64," + req.ImageB64},
		})
	}

	body, err := c.post(ctx, chatEndpoint, ChatCompletionRequest{
		Model:       req.Model,
		Messages:    []Message{{Role: "user", Content: content}},
		Temperature: 0.7,
		MaxTokens:   maxTokens,
		TopP:        topP,
	})
	if err != nil {
		return "", err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in response")
	}
	text := messageText(resp.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("empty response from llama.cpp server")
	}
	c.log.Debug("llama.cpp answered",
		slog.String("component", "llamacpp"),
		slog.String("model", resp.Model),
		slog.Int("chars", len(text)))
	return text, nil
}

// messageText extracts the first text from a string or content-part answer.
func messageText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if part, ok := item.(map[string]any); ok {
				if text, ok := part["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
