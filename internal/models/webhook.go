// Package models defines webhook payload structures for BotEngine.
package models

// WebhookPayload is the JSON body of a webhook delivery (POST). The same
// envelope carries both channel shapes: per-message channels populate
// entry[].changes[].value.messages[], batched-event channels populate
// entry[].messaging[].
type WebhookPayload struct {
	Object string         `json:"object,omitempty"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry is one entry in a webhook delivery.
type WebhookEntry struct {
	ID        string           `json:"id,omitempty"`
	Changes   []WebhookChange  `json:"changes,omitempty"`
	Messaging []MessagingEvent `json:"messaging,omitempty"`
}

// WebhookChange wraps the value object of a per-message channel entry.
type WebhookChange struct {
	Field string       `json:"field,omitempty"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds the inbound messages of one change.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Contacts         []InboundContact `json:"contacts,omitempty"`
}

// InboundMessage is a single user message from a per-message channel.
type InboundMessage struct {
	ID   string    `json:"id"`
	From string    `json:"from"`
	Type string    `json:"type,omitempty"`
	Text *TextBody `json:"text,omitempty"`
}

// TextBody carries the text content of an inbound or outbound message.
type TextBody struct {
	Body string `json:"body"`
}

// InboundContact carries the optional profile info sent with a message.
type InboundContact struct {
	WaID    string `json:"wa_id,omitempty"`
	Profile struct {
		Name string `json:"name,omitempty"`
	} `json:"profile"`
}

// MessagingEvent is one sub-event of a batched-event channel entry. Events
// without a Message (delivery receipts, echoes) carry no user content.
type MessagingEvent struct {
	Sender   MessagingParty `json:"sender"`
	Message  *MessagingText `json:"message,omitempty"`
	Delivery any            `json:"delivery,omitempty"`
}

// MessagingParty identifies a participant in a batched-event conversation.
type MessagingParty struct {
	ID string `json:"id"`
}

// MessagingText is the message part of a batched-event sub-event.
type MessagingText struct {
	MID  string `json:"mid,omitempty"`
	Text string `json:"text"`
}

// InteractivePayload is a structured outbound reply (URL button).
type InteractivePayload struct {
	Body      string `json:"body"`
	ButtonURL string `json:"button_url"`
	ButtonTxt string `json:"button_text"`
}
