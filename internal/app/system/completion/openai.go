// internal/app/system/completion/openai.go
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"github.com/go-resty/resty/v2"
)

// ClientConfig configures an OpenAI-compatible endpoint (OpenAI, OpenRouter).
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Referer string // sent as HTTP-Referer for OpenRouter attribution
	Title   string // sent as X-Title
	Timeout time.Duration
}

// Client calls /chat/completions and /images/generations.
type Client struct {
	http       *resty.Client
	imageModel string
}

// NewClient builds a client for cfg.
func NewClient(cfg ClientConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(cfg.APIKey).
		SetTimeout(timeout)
	if cfg.Referer != "" {
		c.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		c.SetHeader("X-Title", cfg.Title)
	}
	return &Client{http: c, imageModel: "dall-e-3"}
}

// WithImageModel sets the model used by Generate.
func (c *Client) WithImageModel(model string) *Client {
	if model != "" {
		c.imageModel = model
	}
	return c
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type chatRequest struct {
	Model       string     `json:"model"`
	Messages    []Message  `json:"messages"`
	Tools       []chatTool `json:"tools,omitempty"`
	ToolChoice  string     `json:"tool_choice,omitempty"`
	MaxTokens   int        `json:"max_tokens,omitempty"`
	Temperature float64    `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   *string           `json:"content"`
			ToolCalls []models.ToolCall `json:"tool_calls"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete implements Provider.
func (c *Client) Complete(ctx context.Context, req Request) (Response, error) {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, chatTool{
			Type:     "function",
			Function: chatFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/chat/completions")
	if err != nil {
		return Response{}, fmt.Errorf("completion request: %w", err)
	}

	var cr chatResponse
	if err := json.Unmarshal(resp.Body(), &cr); err != nil {
		return Response{}, fmt.Errorf("completion status %d: decode: %w", resp.StatusCode(), err)
	}
	if resp.StatusCode() != http.StatusOK {
		msg := resp.Status()
		if cr.Error != nil && cr.Error.Message != "" {
			msg = cr.Error.Message
		}
		return Response{}, fmt.Errorf("completion status %d: %s", resp.StatusCode(), msg)
	}
	if len(cr.Choices) == 0 {
		return Response{}, fmt.Errorf("completion: no choices returned")
	}

	m := cr.Choices[0].Message
	out := Response{ToolCalls: m.ToolCalls}
	if m.Content != nil {
		out.Content = *m.Content
	}
	return out, nil
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Generate implements ImageGenerator with one 1024x1024 image.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body := imageRequest{Model: c.imageModel, Prompt: prompt, N: 1, Size: "1024x1024"}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/images/generations")
	if err != nil {
		return "", fmt.Errorf("image request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("image status %d: %s", resp.StatusCode(), resp.String())
	}

	var ir imageResponse
	if err := json.Unmarshal(resp.Body(), &ir); err != nil {
		return "", fmt.Errorf("decode image response: %w", err)
	}
	if len(ir.Data) == 0 || ir.Data[0].URL == "" {
		return "", fmt.Errorf("image response carried no url")
	}
	return ir.Data[0].URL, nil
}
