package chatsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/apperr"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/completion"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/metrics"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/websearch"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	AssistantName = "SYNAPSE AI"

	imageOnlyContent  = "Visual Asset Transmitted"
	imageDoneContent  = "Strategic visualization complete. Asset analyzed and archived."
	fallbackReply     = "Analysis complete."
	userImagePrompt   = "Analyze this visual asset."
	assistantImageTxt = "Visual intelligence report complete."
)

// SendInput is one user turn.
type SendInput struct {
	ChatID     string
	GroupID    string
	Message    string
	Image      string
	Persona    string
	Encryption *bool
}

// SendResult is the assistant reply and the chat as persisted afterwards.
type SendResult struct {
	ChatID   primitive.ObjectID `json:"chatId"`
	Title    string             `json:"title"`
	Response string             `json:"response"`
	Messages []models.Message   `json:"messages"`
}

// Send persists the user's message, asks the completion provider for a reply
// (running any requested tools), and persists the reply. The user's message
// stays persisted when the provider fails.
func (s *Service) Send(ctx context.Context, actor models.Actor, in SendInput, cfg completion.Config) (SendResult, error) {
	message := strings.TrimSpace(in.Message)
	image := strings.TrimSpace(in.Image)
	if message == "" && image == "" {
		return SendResult{}, apperr.Invalid("missing_message", "Message or image is required")
	}
	persona, err := ParsePersona(in.Persona)
	if err != nil {
		return SendResult{}, apperr.Invalid("invalid_persona", "Invalid persona")
	}
	encryption := in.Encryption == nil || *in.Encryption
	cfg = cfg.WithDefaults()
	if cfg.Provider == nil {
		return SendResult{}, apperr.UpstreamFailure("The assistant is not configured", nil)
	}

	c, g, err := s.GetOrCreate(ctx, actor, in.ChatID, in.GroupID, message)
	if err != nil {
		return SendResult{}, err
	}
	log := s.log.With(zap.String("actor", actor.Email), zap.String("chat_id", c.ID.Hex()))

	content := message
	if content == "" {
		content = imageOnlyContent
	}
	userMsg := models.Message{
		Role:        models.MessageUser,
		Content:     content,
		SenderName:  actor.DisplayName(),
		SenderImage: actor.Image,
		Image:       image,
		Timestamp:   s.now(),
	}
	if err := s.Append(ctx, c.ID, userMsg); err != nil {
		return SendResult{}, err
	}
	metrics.ChatMessages.WithLabelValues(scope(c)).Inc()
	history := append(append([]models.Message{}, c.Messages...), userMsg)

	if cfg.Images != nil && wantsImage(message) {
		if res, ok := s.generateImage(ctx, log, c, message, cfg.Images); ok {
			return res, nil
		}
	}

	req := completion.Request{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
		Messages: append([]completion.Message{{
			Role: completion.RoleSystem,
			Content: systemPrompt(promptInput{
				Persona:    persona,
				Encryption: encryption,
				Actor:      actor,
				Group:      g,
				Now:        s.now(),
			}),
		}}, toWire(history)...),
	}
	if cfg.EnableTools {
		req.Tools = completion.Tools()
	}

	resp, err := s.complete(ctx, cfg.Provider, req)
	if err != nil {
		log.Error("completion failed", zap.String("model", cfg.Model), zap.Error(err))
		return SendResult{}, apperr.UpstreamFailure("The assistant is unavailable. Please try again.", err)
	}

	reply := resp.Content
	if len(resp.ToolCalls) > 0 {
		intent := models.Message{
			Role:      models.MessageAI,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
			Timestamp: s.now(),
		}
		persisted := []models.Message{intent}
		req.Messages = append(req.Messages, completion.Message{
			Role:      completion.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			wire, stored := s.runTool(ctx, log, cfg, call)
			req.Messages = append(req.Messages, completion.Message{
				Role:       completion.RoleTool,
				ToolCallID: call.ID,
				Content:    wire,
			})
			persisted = append(persisted, models.Message{
				Role:       models.MessageTool,
				ToolCallID: call.ID,
				Name:       call.Function.Name,
				Content:    stored,
				Timestamp:  s.now(),
			})
		}
		if err := s.Append(ctx, c.ID, persisted...); err != nil {
			return SendResult{}, err
		}

		req.Tools = nil
		second, err := s.complete(ctx, cfg.Provider, req)
		if err != nil {
			log.Error("completion after tools failed", zap.String("model", cfg.Model), zap.Error(err))
			return SendResult{}, apperr.UpstreamFailure("The assistant is unavailable. Please try again.", err)
		}
		reply = second.Content
	}
	if strings.TrimSpace(reply) == "" {
		reply = fallbackReply
	}

	final := models.Message{
		Role:       models.MessageAI,
		Content:    reply,
		SenderName: AssistantName,
		Timestamp:  s.now(),
	}
	if err := s.Append(ctx, c.ID, final); err != nil {
		return SendResult{}, err
	}
	return s.result(ctx, c, reply), nil
}

func (s *Service) complete(ctx context.Context, p completion.Provider, req completion.Request) (completion.Response, error) {
	cctx, cancel := timeouts.WithTimeout(ctx, timeouts.Upstream(), s.log, "completion")
	defer cancel()
	start := time.Now()
	resp, err := p.Complete(cctx, req)
	metrics.CompletionSeconds.Observe(time.Since(start).Seconds())
	return resp, err
}

// generateImage answers an image request directly. It reports false when
// generation fails so the caller can fall back to a text reply.
func (s *Service) generateImage(ctx context.Context, log *zap.Logger, c models.Chat, prompt string, gen completion.ImageGenerator) (SendResult, bool) {
	gctx, cancel := timeouts.WithTimeout(ctx, timeouts.Upstream(), s.log, "image generation")
	defer cancel()
	url, err := gen.Generate(gctx, prompt)
	if err != nil || url == "" {
		log.Warn("image generation failed, falling back to text", zap.Error(err))
		return SendResult{}, false
	}
	msg := models.Message{
		Role:       models.MessageAI,
		Content:    imageDoneContent,
		Image:      url,
		SenderName: AssistantName,
		Timestamp:  s.now(),
	}
	if err := s.Append(ctx, c.ID, msg); err != nil {
		return SendResult{}, false
	}
	reply := fmt.Sprintf("Here is the visual representation based on your request: \n\n![Generated Image](%s)", url)
	return s.result(ctx, c, reply), true
}

func (s *Service) result(ctx context.Context, c models.Chat, reply string) SendResult {
	res := SendResult{ChatID: c.ID, Title: c.Title, Response: reply}
	fresh, err := s.chats.GetByID(ctx, c.ID)
	if err != nil {
		s.log.Warn("reload chat failed", zap.String("chat_id", c.ID.Hex()), zap.Error(err))
		return res
	}
	res.Messages = fresh.Messages
	return res
}

type searchArgs struct {
	Query string `json:"query"`
}

type chartArgs struct {
	Symbol   string `json:"symbol"`
	Interval string `json:"interval"`
}

// runTool executes one tool call. It returns the text sent back to the model
// and the content persisted on the tool message. Failures become text.
func (s *Service) runTool(ctx context.Context, log *zap.Logger, cfg completion.Config, call models.ToolCall) (wire, stored string) {
	switch call.Function.Name {
	case completion.ToolWebSearch:
		var args searchArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || strings.TrimSpace(args.Query) == "" {
			log.Warn("web_search called with bad arguments", zap.String("arguments", call.Function.Arguments), zap.Error(err))
			return "Search failed: missing query.", "Search failed: missing query."
		}
		if cfg.Search == nil {
			return websearch.NotConfiguredText, websearch.NotConfiguredText
		}
		sctx, cancel := timeouts.WithTimeout(ctx, timeouts.Upstream(), s.log, "web search")
		defer cancel()
		out, err := cfg.Search.Search(sctx, args.Query)
		if err != nil {
			log.Warn("web search failed", zap.String("query", args.Query), zap.Error(err))
			msg := "Search failed: the search service is unavailable."
			if errors.Is(err, websearch.ErrNotConfigured) {
				msg = websearch.NotConfiguredText
			}
			return msg, msg
		}
		return out, out

	case completion.ToolStockChart:
		var args chartArgs
		if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil || strings.TrimSpace(args.Symbol) == "" {
			log.Warn("show_stock_chart called with bad arguments", zap.String("arguments", call.Function.Arguments), zap.Error(err))
			return "Chart failed: missing symbol.", "Chart failed: missing symbol."
		}
		if args.Interval == "" {
			args.Interval = "D"
		}
		raw, _ := json.Marshal(map[string]any{
			"type":     "chart",
			"source":   "tradingview",
			"symbol":   args.Symbol,
			"interval": args.Interval,
			"success":  true,
		})
		return fmt.Sprintf("Chart for %s generated. Rendering on user interface...", args.Symbol), string(raw)
	}

	log.Warn("unknown tool requested", zap.String("tool", call.Function.Name))
	msg := fmt.Sprintf("Unknown tool: %s", call.Function.Name)
	return msg, msg
}

// toWire converts persisted history into completion messages.
func toWire(history []models.Message) []completion.Message {
	out := make([]completion.Message, 0, len(history))
	for _, m := range history {
		w := completion.Message{Content: m.Content}
		switch m.Role {
		case models.MessageAI:
			w.Role = completion.RoleAssistant
			w.ToolCalls = m.ToolCalls
		case models.MessageTool:
			w.Role = completion.RoleTool
			w.ToolCallID = m.ToolCallID
		case models.MessageSystem:
			w.Role = completion.RoleSystem
		case models.MessageUser, models.MessageFunction:
			w.Role = completion.RoleUser
		default:
			w.Role = completion.RoleUser
		}
		if m.Image != "" && m.Role != models.MessageTool {
			w.ImageURL = m.Image
			w.ToolCalls = nil
			if w.Content == "" {
				w.Content = userImagePrompt
				if m.Role == models.MessageAI {
					w.Content = assistantImageTxt
				}
			}
		}
		out = append(out, w)
	}
	return out
}
