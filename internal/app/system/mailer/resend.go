// internal/app/system/mailer/resend.go
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// ResendSender posts to the Resend HTTP API.
type ResendSender struct {
	client *resty.Client
}

// NewResendSender builds a sender for apiKey. An empty baseURL uses the
// public API.
func NewResendSender(baseURL, apiKey string) *ResendSender {
	if baseURL == "" {
		baseURL = "https://api.resend.com"
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second)
	return &ResendSender{client: c}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send implements Sender. 4xx responses other than 429 are permanent.
func (s *ResendSender) Send(ctx context.Context, e Email) error {
	body := resendRequest{From: e.From, To: []string{e.To}, Subject: e.Subject, HTML: e.HTMLBody, Text: e.TextBody}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(&body).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("resend request: %w", err)
	}
	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests || code >= 500:
		return fmt.Errorf("resend status %d", code)
	default:
		return fmt.Errorf("%w: resend status %d: %s", ErrPermanent, code, resp.String())
	}
}
