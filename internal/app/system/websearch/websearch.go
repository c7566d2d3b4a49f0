// internal/app/system/websearch/websearch.go
package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the SearchAPI.io endpoint root.
const DefaultBaseURL = "https://www.searchapi.io"

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("search api key not configured")

// NotConfiguredText is the tool result reported to the model when search is
// unavailable.
const NotConfiguredText = "Search API key not configured. Please set searchapi_key in the server configuration."

// Client queries SearchAPI.io with the DuckDuckGo engine.
type Client struct {
	http   *resty.Client
	apiKey string
}

// New builds a client. An empty baseURL uses DefaultBaseURL.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)
	return &Client{http: c, apiKey: apiKey}
}

// Result mirrors the parts of the SearchAPI response that are rendered.
type Result struct {
	AIOverview     *Overview       `json:"ai_overview"`
	KnowledgeGraph *KnowledgeGraph `json:"knowledge_graph"`
	TopStories     []Story         `json:"top_stories"`
	OrganicResults []Organic       `json:"organic_results"`
}

type Overview struct {
	Answer string `json:"answer"`
}

type KnowledgeGraph struct {
	Title       string            `json:"title"`
	Subtitle    string            `json:"subtitle"`
	Description string            `json:"description"`
	Facts       map[string]string `json:"facts"`
}

type Story struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
}

type Organic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Search runs query and returns Markdown ready to hand back to the model.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":  "duckduckgo",
			"q":       query,
			"api_key": c.apiKey,
		}).
		Get("/api/v1/search")
	if err != nil {
		return "", fmt.Errorf("searchapi request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("SearchAPI returned status %d", resp.StatusCode())
	}

	var r Result
	if err := json.Unmarshal(resp.Body(), &r); err != nil {
		return "", fmt.Errorf("decode searchapi response: %w", err)
	}
	return Format(r), nil
}

const maxItems = 5

// Format renders r as Markdown sections: overview, entity card, news, then
// organic results.
func Format(r Result) string {
	var b strings.Builder

	if r.AIOverview != nil && r.AIOverview.Answer != "" {
		fmt.Fprintf(&b, "### AI Overview\n%s\n\n", r.AIOverview.Answer)
	}

	if kg := r.KnowledgeGraph; kg != nil && kg.Title != "" {
		fmt.Fprintf(&b, "### %s\n", kg.Title)
		if kg.Subtitle != "" {
			fmt.Fprintf(&b, "*%s*\n\n", kg.Subtitle)
		}
		if kg.Description != "" {
			fmt.Fprintf(&b, "%s\n\n", kg.Description)
		}
		if len(kg.Facts) > 0 {
			keys := make([]string, 0, len(kg.Facts))
			for k := range kg.Facts {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			b.WriteString("**Key Facts:**\n")
			for _, k := range keys {
				fmt.Fprintf(&b, "- **%s**: %s\n", k, kg.Facts[k])
			}
			b.WriteString("\n")
		}
	}

	if len(r.TopStories) > 0 {
		b.WriteString("### Latest News\n")
		for i, s := range r.TopStories {
			if i == maxItems {
				break
			}
			fmt.Fprintf(&b, "- **[%s](%s)** (%s, %s)\n", s.Title, s.Link, s.Source, shortDate(s.Date))
			if s.Snippet != "" {
				fmt.Fprintf(&b, "  %s\n", s.Snippet)
			}
		}
		b.WriteString("\n")
	}

	if len(r.OrganicResults) > 0 {
		if b.Len() == 0 {
			b.WriteString("### Search Results\n")
		}
		for i, o := range r.OrganicResults {
			if i == maxItems {
				break
			}
			fmt.Fprintf(&b, "**[%s](%s)**\n%s\n\n", o.Title, o.Link, o.Snippet)
		}
	}

	if b.Len() == 0 {
		return "No results found for this query."
	}
	return strings.TrimSpace(b.String())
}

func shortDate(s string) string {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return s
}
