package chatsvc

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/domain/models"
)

// Persona selects the system prompt.
type Persona string

const (
	PersonaBusiness  Persona = "business"
	PersonaTechnical Persona = "technical"
)

func (p Persona) Valid() bool {
	switch p {
	case PersonaBusiness, PersonaTechnical:
		return true
	}
	return false
}

// ParsePersona defaults a blank value to business.
func ParsePersona(s string) (Persona, error) {
	p := Persona(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PersonaBusiness, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("invalid persona %q", s)
	}
	return p, nil
}

const businessPrompt = `You are SYNAPSE AI, a real-time knowledge and business intelligence engine.
Provide the most current, verified and decision-ready information you can.
Prefer live data over static knowledge. When a question needs current news,
market prices, company updates or policy changes, call the web_search tool.
When a user asks about a stock or crypto price trend, call show_stock_chart.
Cross-check facts; when sources conflict, say so and give the best-confidence
scenario. Explain what is happening now, why, what it means in practice, and
what a decision-maker should watch.`

const technicalPrompt = `Your focus is precision technical analysis, deep engineering problem solving,
and advanced architectural design. Provide granular, data-driven technical insights.`

const groupManagerPrompt = `You are operating inside a GROUP context, not an individual chat.
You represent shared intelligence for the entire group and act for the group,
never for one person. Use only group memory here. Respect member roles: if an
action requires permission, ask for admin or owner approval, and never expose
admin-only insights to members. Turn discussion into options, risks,
trade-offs and action items. Reply in the language of the current speaker.`

const closingPrompt = `Always identify as SYNAPSE AI. Your responses must be sharp, highly analytical and expansive.
You must never truncate your output or stop mid-sentence.
FORMATTING: Use Markdown (bold, headers, bullet points) for readability.`

// promptInput is everything the system prompt depends on.
type promptInput struct {
	Persona    Persona
	Encryption bool
	Actor      models.Actor
	Group      *models.Group
	Now        time.Time
}

func systemPrompt(in promptInput) string {
	var b strings.Builder
	switch in.Persona {
	case PersonaTechnical:
		b.WriteString(technicalPrompt)
	case PersonaBusiness:
		b.WriteString(businessPrompt)
	}
	b.WriteString("\n\n")

	if in.Group != nil {
		b.WriteString(groupContext(in.Group, in.Actor.Email))
		b.WriteString("\n")
		b.WriteString(groupManagerPrompt)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "CURRENT SERVER TIME: %s\n", in.Now.Format("Monday, January 2, 2006 3:04 PM MST"))
	fmt.Fprintf(&b, "USER IDENTITY: You are communicating with %s", in.Actor.DisplayName())
	if in.Group == nil {
		b.WriteString(". Address them by their name when appropriate in this personal session.")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "CURRENT CONFIGURATION: %s MODE.\n", strings.ToUpper(string(in.Persona)))
	if in.Encryption {
		b.WriteString("SECURITY STATUS: ENCRYPTED.\n")
	} else {
		b.WriteString("SECURITY STATUS: UNENCRYPTED CLEAR-NET.\n")
	}
	b.WriteString(closingPrompt)
	return b.String()
}

func groupContext(g *models.Group, actor string) string {
	industry := g.Industry
	if industry == "" {
		industry = "General Business"
	}
	desc := g.Description
	if desc == "" {
		desc = "No description provided."
	}
	memory := "[]"
	if len(g.Memory) > 0 {
		if raw, err := json.Marshal(g.Memory); err == nil {
			memory = string(raw)
		}
	}

	role := "MEMBER"
	if g.IsCreator(actor) {
		role = "OWNER"
	} else if m, ok := g.MemberOf(actor); ok {
		role = strings.ToUpper(string(m.Role))
	}

	var b strings.Builder
	b.WriteString("ACTIVE GROUP CONTEXT:\n")
	fmt.Fprintf(&b, "- Group Name: %s\n", g.Name)
	fmt.Fprintf(&b, "- Industry/Function: %s\n", industry)
	fmt.Fprintf(&b, "- Description: %s\n", desc)
	fmt.Fprintf(&b, "- Group Memory: %s\n", memory)
	fmt.Fprintf(&b, "- CURRENT USER ROLE: %s\n", role)
	b.WriteString("Focus on team decisions, shared value and group outcomes.\n")
	return b.String()
}

var imageKeywords = []string{
	"generate image",
	"create image",
	"draw",
	"visualize",
	"make a picture",
	"generate chart",
}

// wantsImage reports whether the message asks for a generated image.
func wantsImage(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range imageKeywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
