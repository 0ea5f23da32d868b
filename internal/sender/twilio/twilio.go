// Package twilio implements sender.WhatsAppSender against the Twilio
// Messages API, ported from the original Python _send_whatsapp_via_twilio.
package twilio

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rgangen24/leadgen/internal/sender"
)

const apiBase = "https://api.twilio.com/2010-04-01"

// Sender delivers WhatsApp messages through Twilio's Messages resource.
type Sender struct {
	accountSID string
	authToken  string
	client     *http.Client
}

// New creates a Twilio WhatsApp sender.
func New(accountSID, authToken string) *Sender {
	return &Sender{accountSID: accountSID, authToken: authToken, client: &http.Client{Timeout: 10 * time.Second}}
}

// Send delivers a single WhatsApp message via Twilio. Missing credentials
// are not an error: the call returns a simulated success, matching the
// original implementation's dev-mode fallback.
func (s *Sender) Send(ctx context.Context, msg *sender.WhatsAppMessage) (*sender.SendResult, error) {
	if s.accountSID == "" || s.authToken == "" || msg.From == "" {
		return &sender.SendResult{Success: true, MessageID: "simulated", SentAt: time.Now().UTC()}, nil
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", apiBase, s.accountSID)
	form := url.Values{
		"From": {whatsappPrefix(msg.From)},
		"To":   {whatsappPrefix(msg.To)},
		"Body": {msg.Body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build twilio request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	auth := base64.StdEncoding.EncodeToString([]byte(s.accountSID + ":" + s.authToken))
	req.Header.Set("Authorization", "Basic "+auth)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("twilio send: status %s", strconv.Itoa(resp.StatusCode))
	}

	return &sender.SendResult{Success: true, MessageID: resp.Header.Get("Twilio-Request-Id"), SentAt: time.Now().UTC()}, nil
}

func whatsappPrefix(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
