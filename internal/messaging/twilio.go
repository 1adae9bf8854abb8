// Package messaging provides the Twilio-backed sender.
package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BTreeMap/BotEngine/internal/models"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSender sends WhatsApp messages through the Twilio REST API. Twilio's
// Go SDK has no interactive-button support, so structured payloads degrade
// to text with the URL appended.
type TwilioSender struct {
	client    *twilio.RestClient
	fromWhats string // WhatsApp number in "whatsapp:+1234567890" format
}

// Compile-time check that TwilioSender implements Sender.
var _ Sender = (*TwilioSender)(nil)

// NewTwilioSender creates a Twilio-backed sender.
func NewTwilioSender(accountSID, authToken, fromWhats string) (*TwilioSender, error) {
	if accountSID == "" || authToken == "" || fromWhats == "" {
		return nil, ErrMissingConfig
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSender{client: client, fromWhats: fromWhats}, nil
}

// SendText sends a plain text message.
func (s *TwilioSender) SendText(ctx context.Context, to, body string) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	params := &twilioApi.CreateMessageParams{}
	params.SetTo("whatsapp:" + to)
	params.SetFrom(s.fromWhats)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		slog.Error("TwilioSender SendText failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	slog.Debug("TwilioSender message sent", "to", to)
	return nil
}

// SendInteractive degrades the structured payload to text with the URL
// appended.
func (s *TwilioSender) SendInteractive(ctx context.Context, to string, p models.InteractivePayload) error {
	body := fmt.Sprintf("%s\n%s: %s", p.Body, p.ButtonTxt, p.ButtonURL)
	return s.SendText(ctx, to, body)
}
