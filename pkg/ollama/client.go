// Package ollama is a client.VisionClient backed by an Ollama server.
package ollama

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/menta2k/thumbnailer/pkg/client"
	"github.com/menta2k/thumbnailer/pkg/types"
)

// DefaultURL is where a local Ollama listens.
const DefaultURL = "http://localhost:11434"

// Client wraps the Ollama API client
type Client struct {
	api *api.Client
	log *slog.Logger
}

// NewClient creates a client for the server at ollamaURL. Any path such as
// /api/chat is dropped; OLLAMA_HOST is ignored.
func NewClient(ollamaURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = DefaultURL
	}
	parsed, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: need scheme and host", ollamaURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	base := &url.URL{Scheme: parsed.Scheme, Host: parsed.Host}
	return &Client{api: api.NewClient(base, httpClient), log: logger}, nil
}

// SimpleQuery returns the model's free text answer
func (c *Client) SimpleQuery(ctx context.Context, req client.Request) (string, error) {
	return c.chat(ctx, req, nil)
}

// AnalyzeImage asks for a JSON subject description and parses it
func (c *Client) AnalyzeImage(ctx context.Context, req client.Request) (*types.AnalysisResult, error) {
	content, err := c.chat(ctx, req, modelOptions(req.Model))
	if err != nil {
		return nil, err
	}
	if content == "" {
		return nil, errors.New("empty response from ollama")
	}
	return client.ParseAnalysis(content), nil
}

func (c *Client) chat(ctx context.Context, req client.Request, options map[string]any) (string, error) {
	ctx, cancel := client.WithDefaultTimeout(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		return "", fmt.Errorf("decode base64 image: %w", err)
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model: req.Model,
		Messages: []api.Message{
			{
				Role:    "user",
				Content: req.Prompt,
				Images:  []api.ImageData{api.ImageData(imgBytes)},
			},
		},
		Stream:  &stream,
		Options: options,
	}

	var content string
	err = c.api.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		content += resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	c.log.Debug("ollama answered",
		slog.String("component", "ollama"),
		slog.String("model", req.Model),
		slog.Int("chars", len(content)))
	return content, nil
}

// modelOptions tunes sampling for models known to ramble at defaults.
func modelOptions(model string) map[string]any {
	m := strings.ToLower(model)
	for _, name := range []string{"minicpm-v4", "minicpm-v-4", "minicpmv4"} {
		if strings.Contains(m, name) {
			return map[string]any{"temperature": 0.7, "top_p": 0.8, "num_ctx": 4096}
		}
	}
	return nil
}
