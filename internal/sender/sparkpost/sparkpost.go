// Package sparkpost implements sender.EmailSender against the SparkPost
// Transmissions API, following the teacher's esp_sparkpost.go adapter.
package sparkpost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rgangen24/leadgen/internal/logging"
	"github.com/rgangen24/leadgen/internal/sender"
)

// Sender sends emails via the SparkPost Transmissions API.
type Sender struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a sender targeting the SparkPost v1 API.
func New(apiKey string) *Sender {
	return &Sender{apiKey: apiKey, baseURL: "https://api.sparkpost.com/api/v1", client: &http.Client{Timeout: 30 * time.Second}}
}

// Send delivers a single email through SparkPost.
func (s *Sender) Send(ctx context.Context, msg *sender.EmailMessage) (*sender.SendResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("sparkpost api key not configured")
	}

	transmission := map[string]interface{}{
		"recipients": []map[string]interface{}{
			{"address": map[string]string{"email": msg.To}},
		},
		"content": map[string]interface{}{
			"from":    map[string]string{"email": msg.FromEmail, "name": msg.FromName},
			"subject": msg.Subject,
			"html":    msg.HTMLContent,
			"text":    msg.TextContent,
		},
	}

	jsonData, err := json.Marshal(transmission)
	if err != nil {
		return nil, fmt.Errorf("marshal sparkpost transmission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/transmissions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("build sparkpost request: %w", err)
	}
	req.Header.Set("Authorization", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sparkpost send: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode >= 400 {
		logging.Warn("sparkpost_send_failed", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("sparkpost error %d", resp.StatusCode)
	}

	var result struct {
		Results struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	_ = json.Unmarshal(body, &result)

	return &sender.SendResult{Success: true, MessageID: result.Results.ID, SentAt: time.Now().UTC()}, nil
}
