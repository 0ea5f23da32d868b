// Package mailgun implements sender.EmailSender against the Mailgun
// Messages API, following the teacher's esp_mailgun.go adapter.
package mailgun

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/sender"
)

// Sender sends emails via the Mailgun Messages API.
type Sender struct {
	apiKey  string
	domain  string
	baseURL string
	client  *http.Client
}

// New creates a Mailgun sender targeting the given domain.
func New(apiKey, domain string) *Sender {
	return &Sender{apiKey: apiKey, domain: domain, baseURL: "https://api.mailgun.net/v3", client: &http.Client{Timeout: 60 * time.Second}}
}

// Send delivers a single email through Mailgun.
func (s *Sender) Send(ctx context.Context, msg *sender.EmailMessage) (*sender.SendResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("mailgun api key not configured")
	}

	form := url.Values{}
	form.Add("from", fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail))
	form.Add("to", msg.To)
	form.Add("subject", msg.Subject)
	form.Add("html", msg.HTMLContent)
	if msg.TextContent != "" {
		form.Add("text", msg.TextContent)
	}

	endpoint := fmt.Sprintf("%s/%s/messages", s.baseURL, s.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build mailgun request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mailgun send: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		logging.Warn("mailgun_send_failed", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("mailgun error %d", resp.StatusCode)
	}

	var result struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &result)
	messageID := strings.Trim(result.ID, "<>")

	return &sender.SendResult{Success: true, MessageID: messageID, SentAt: time.Now().UTC()}, nil
}
