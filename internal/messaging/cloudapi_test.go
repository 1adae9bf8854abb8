package messaging

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BTreeMap/BotEngine/internal/models"
)

// graphStub fakes the provider endpoint and captures the last request.
type graphStub struct {
	status   int
	lastPath string
	lastAuth string
	lastBody map[string]any
}

func newGraphStub(t *testing.T, status int) (*graphStub, *httptest.Server) {
	t.Helper()
	stub := &graphStub{status: status}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.lastPath = r.URL.Path
		stub.lastAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		stub.lastBody = nil
		if err := json.Unmarshal(body, &stub.lastBody); err != nil {
			t.Errorf("provider received invalid JSON: %v", err)
		}
		w.WriteHeader(stub.status)
	}))
	t.Cleanup(srv.Close)
	return stub, srv
}

func TestCloudAPISenderRequiresConfig(t *testing.T) {
	if _, err := NewCloudAPISender("", "12345"); err != ErrMissingConfig {
		t.Errorf("missing token should fail with ErrMissingConfig, got %v", err)
	}
	if _, err := NewCloudAPISender("token", ""); err != ErrMissingConfig {
		t.Errorf("missing phone id should fail with ErrMissingConfig, got %v", err)
	}
}

func TestCloudAPISendText(t *testing.T) {
	stub, srv := newGraphStub(t, http.StatusOK)
	s, err := NewCloudAPISender("tok", "12345", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("failed to build sender: %v", err)
	}

	if err := s.SendText(context.Background(), "+123", "hello there"); err != nil {
		t.Fatalf("SendText failed: %v", err)
	}

	if stub.lastPath != "/12345/messages" {
		t.Errorf("unexpected path %q", stub.lastPath)
	}
	if stub.lastAuth != "Bearer tok" {
		t.Errorf("unexpected auth header %q", stub.lastAuth)
	}
	if stub.lastBody["messaging_product"] != "whatsapp" || stub.lastBody["type"] != "text" {
		t.Errorf("unexpected payload shape: %v", stub.lastBody)
	}
	text, _ := stub.lastBody["text"].(map[string]any)
	if text["body"] != "hello there" {
		t.Errorf("body not carried through: %v", stub.lastBody)
	}
}

func TestCloudAPISendInteractive(t *testing.T) {
	stub, srv := newGraphStub(t, http.StatusOK)
	s, err := NewCloudAPISender("tok", "12345", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("failed to build sender: %v", err)
	}

	payload := models.InteractivePayload{
		Body:      "Pay *Notebook* ($10,000)",
		ButtonURL: "https://pay.example.com/checkout?item=notebook",
		ButtonTxt: "Pay now",
	}
	if err := s.SendInteractive(context.Background(), "+123", payload); err != nil {
		t.Fatalf("SendInteractive failed: %v", err)
	}

	if stub.lastBody["type"] != "interactive" {
		t.Errorf("unexpected payload type: %v", stub.lastBody)
	}
	interactive, _ := stub.lastBody["interactive"].(map[string]any)
	if interactive["type"] != "button" {
		t.Errorf("unexpected interactive type: %v", interactive)
	}
	action, _ := interactive["action"].(map[string]any)
	buttons, _ := action["buttons"].([]any)
	if len(buttons) != 1 {
		t.Fatalf("expected 1 button, got %v", action)
	}
	button, _ := buttons[0].(map[string]any)
	if button["type"] != "url" || button["url"] != payload.ButtonURL || button["text"] != "Pay now" {
		t.Errorf("unexpected button: %v", button)
	}
}

func TestCloudAPISendValidatesInput(t *testing.T) {
	_, srv := newGraphStub(t, http.StatusOK)
	s, _ := NewCloudAPISender("tok", "12345", WithBaseURL(srv.URL))
	ctx := context.Background()

	if err := s.SendText(ctx, "", "hello"); err != models.ErrEmptyRecipient {
		t.Errorf("empty recipient should fail, got %v", err)
	}
	if err := s.SendText(ctx, "+123", ""); err != models.ErrEmptyBody {
		t.Errorf("empty body should fail, got %v", err)
	}
}

func TestCloudAPISendRejectedByProvider(t *testing.T) {
	_, srv := newGraphStub(t, http.StatusUnauthorized)
	s, _ := NewCloudAPISender("tok", "12345", WithBaseURL(srv.URL))

	if err := s.SendText(context.Background(), "+123", "hello"); err == nil {
		t.Error("non-2xx provider response should surface as an error")
	}
}
