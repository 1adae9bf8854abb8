package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/BTreeMap/BotEngine/internal/models"
)

const cloudAPIDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "100",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "contacts": [{"wa_id": "+123", "profile": {"name": "Ada"}}],
        "messages": [{"id": "wamid.1", "from": "+123", "type": "text", "text": {"body": "hello"}}]
      }
    }]
  }]
}`

const messengerDelivery = `{
  "object": "page",
  "entry": [{
    "id": "200",
    "messaging": [
      {"sender": {"id": "psid-1"}, "delivery": {"watermark": 1}},
      {"sender": {"id": "psid-1"}, "message": {"mid": "mid.1", "text": "hello"}}
    ]
  }]
}`

func TestProcessWebhookCloudAPIDelivery(t *testing.T) {
	eng, st, sender := newTestEngine(t)

	eng.ProcessWebhook(context.Background(), []byte(cloudAPIDelivery))

	if got := countBySender(t, st, "+123", models.SenderClient); got != 1 {
		t.Errorf("webhook message should be persisted once, got %d", got)
	}
	if !strings.Contains(sender.allTexts(), "Welcome") {
		t.Errorf("greeting should get the welcome reply:\n%s", sender.allTexts())
	}

	convs, err := st.ListConversations()
	if err != nil {
		t.Fatalf("ListConversations failed: %v", err)
	}
	if len(convs) != 1 || convs[0].Name != "Ada" {
		t.Errorf("profile name from the payload should be recorded, got %+v", convs)
	}
}

func TestProcessWebhookMessengerDelivery(t *testing.T) {
	eng, st, sender := newTestEngine(t)

	eng.ProcessWebhook(context.Background(), []byte(messengerDelivery))

	if got := countBySender(t, st, "psid-1", models.SenderClient); got != 1 {
		t.Errorf("messenger message should be persisted once, got %d", got)
	}
	if len(sender.texts) != 1 {
		t.Errorf("receipt sub-event must not produce a reply, got %d sends", len(sender.texts))
	}
}

func TestProcessWebhookMalformedPayload(t *testing.T) {
	eng, st, sender := newTestEngine(t)

	eng.ProcessWebhook(context.Background(), []byte("{not json"))
	eng.ProcessWebhook(context.Background(), []byte(`{"entry": []}`))

	if len(sender.texts) != 0 {
		t.Errorf("malformed or empty payloads must be ignored, got %v", sender.texts)
	}
	if convs, _ := st.ListConversations(); len(convs) != 0 {
		t.Errorf("malformed payload must not create records, got %+v", convs)
	}
}
