// internal/app/system/completion/completion.go

// Package completion is the boundary to the language model. The chat service
// receives a Config value on every call; nothing here is process-global.
package completion

import (
	"context"
	"encoding/json"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

// Wire roles used by OpenAI-compatible APIs.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the request history.
type Message struct {
	Role       string
	Content    string
	ImageURL   string
	ToolCallID string
	ToolCalls  []models.ToolCall
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type wireMessage struct {
	Role       string            `json:"role"`
	Content    any               `json:"content"`
	ToolCallID string            `json:"tool_call_id,omitempty"`
	ToolCalls  []models.ToolCall `json:"tool_calls,omitempty"`
}

// MarshalJSON emits multi-part content when an image is attached, and a
// null content for an assistant turn that only carries tool calls.
func (m Message) MarshalJSON() ([]byte, error) {
	w := wireMessage{Role: m.Role, ToolCallID: m.ToolCallID, ToolCalls: m.ToolCalls}
	switch {
	case m.ImageURL != "":
		w.Content = []contentPart{
			{Type: "text", Text: m.Content},
			{Type: "image_url", ImageURL: &imageURL{URL: m.ImageURL}},
		}
	case m.Content == "" && len(m.ToolCalls) > 0:
		w.Content = nil
	default:
		w.Content = m.Content
	}
	return json.Marshal(w)
}

// Tool declares a function the model may call.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one completion round-trip.
type Request struct {
	Model       string
	MaxTokens   int
	Temperature float64
	Messages    []Message
	Tools       []Tool
}

// Response is the assistant turn: final text, tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []models.ToolCall
}

// Provider runs a completion.
type Provider interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// ImageGenerator turns a prompt into an image URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Searcher answers a web query with formatted text.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Config selects the provider and model for one chat send.
type Config struct {
	Provider    Provider
	Images      ImageGenerator // nil disables image generation
	Search      Searcher       // nil leaves web_search answering "not configured"
	Model       string
	MaxTokens   int
	Temperature float64
	EnableTools bool
}

// Defaults used when Config leaves fields zero.
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultMaxTokens   = 4096
	DefaultTemperature = 0.7
)

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Temperature <= 0 {
		c.Temperature = DefaultTemperature
	}
	return c
}

// Tool names understood by the chat service.
const (
	ToolWebSearch  = "web_search"
	ToolStockChart = "show_stock_chart"
)

// Tools returns the declarations sent when tools are enabled.
func Tools() []Tool {
	return []Tool{
		{
			Name:        ToolWebSearch,
			Description: "Search the web for real-time information, news, or market data.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "The search query to find information about.",
					},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        ToolStockChart,
			Description: "Display an interactive price chart for a stock or crypto ticker.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"symbol": map[string]any{
						"type":        "string",
						"description": "Ticker symbol, e.g. NASDAQ:AAPL or BTCUSD.",
					},
					"interval": map[string]any{
						"type":        "string",
						"description": "Chart interval, e.g. D, W, 60. Defaults to D.",
					},
				},
				"required": []string{"symbol"},
			},
		},
	}
}
