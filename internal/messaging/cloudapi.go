// Package messaging provides the Meta Cloud API sender.
package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// DefaultGraphBaseURL is the Meta Graph API endpoint prefix.
const DefaultGraphBaseURL = "https://graph.facebook.com/v19.0"

// CloudAPISender sends messages through the Meta Cloud API with a
// bearer-token-authenticated POST per message.
type CloudAPISender struct {
	token   string
	phoneID string
	baseURL string
	client  *http.Client
}

// Compile-time check that CloudAPISender implements Sender.
var _ Sender = (*CloudAPISender)(nil)

// CloudAPIOption configures a CloudAPISender.
type CloudAPIOption func(*CloudAPISender)

// WithBaseURL overrides the Graph API base URL (used in tests).
func WithBaseURL(url string) CloudAPIOption {
	return func(s *CloudAPISender) { s.baseURL = url }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) CloudAPIOption {
	return func(s *CloudAPISender) { s.client = c }
}

// NewCloudAPISender creates a sender for the given access token and business
// phone number id.
func NewCloudAPISender(token, phoneID string, opts ...CloudAPIOption) (*CloudAPISender, error) {
	if token == "" || phoneID == "" {
		return nil, ErrMissingConfig
	}
	s := &CloudAPISender{
		token:   token,
		phoneID: phoneID,
		baseURL: DefaultGraphBaseURL,
		client:  &http.Client{Timeout: DefaultSendTimeout},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// textPayload is the Cloud API body for a plain text message.
type textPayload struct {
	MessagingProduct string          `json:"messaging_product"`
	To               string          `json:"to"`
	Type             string          `json:"type"`
	Text             models.TextBody `json:"text"`
}

// interactivePayload is the Cloud API body for a URL-button message.
type interactivePayload struct {
	MessagingProduct string `json:"messaging_product"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Interactive      struct {
		Type string `json:"type"`
		Body struct {
			Text string `json:"text"`
		} `json:"body"`
		Action struct {
			Buttons []urlButton `json:"buttons"`
		} `json:"action"`
	} `json:"interactive"`
}

type urlButton struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Text string `json:"text"`
}

// SendText sends a plain text message.
func (s *CloudAPISender) SendText(ctx context.Context, to, body string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	if body == "" {
		return models.ErrEmptyBody
	}
	payload := textPayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             models.TextBody{Body: body},
	}
	return s.post(ctx, payload)
}

// SendInteractive sends a URL-button message.
func (s *CloudAPISender) SendInteractive(ctx context.Context, to string, p models.InteractivePayload) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	payload := interactivePayload{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "interactive",
	}
	payload.Interactive.Type = "button"
	payload.Interactive.Body.Text = p.Body
	payload.Interactive.Action.Buttons = []urlButton{{Type: "url", URL: p.ButtonURL, Text: p.ButtonTxt}}
	return s.post(ctx, payload)
}

func (s *CloudAPISender) post(ctx context.Context, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbound payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", s.baseURL, s.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build outbound request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("outbound request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		slog.Error("CloudAPISender provider rejected message", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("provider returned status %d", resp.StatusCode)
	}
	slog.Debug("CloudAPISender message accepted", "status", resp.StatusCode)
	return nil
}
