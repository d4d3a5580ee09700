package models

// ObjectPage is the webhook object value for Messenger page subscriptions.
const ObjectPage = "page"

// VerificationRequest carries the hub.* query parameters of a subscription handshake.
type VerificationRequest struct {
	Mode      string
	Token     string
	Challenge string
}

// WebhookEvent represents the main webhook payload from Facebook
type WebhookEvent struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents a page entry in the webhook. Facebook may batch several
// messaging events into one entry.
type Entry struct {
	ID        string      `json:"id"`
	Time      int64       `json:"time"`
	Messaging []Messaging `json:"messaging,omitempty"`
}

// Messaging represents a messaging event. Exactly one of Message or Postback
// is expected to be set.
type Messaging struct {
	Sender    User      `json:"sender"`
	Recipient User      `json:"recipient"`
	Timestamp int64     `json:"timestamp"`
	Message   *Message  `json:"message,omitempty"`
	Postback  *Postback `json:"postback,omitempty"`
}

// User represents a Facebook user or page by its page-scoped ID
type User struct {
	ID string `json:"id"`
}

// Message represents a message
type Message struct {
	MID         string       `json:"mid"`
	Text        string       `json:"text"`
	IsEcho      bool         `json:"is_echo,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a message attachment
type Attachment struct {
	Type    string            `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

// AttachmentPayload represents attachment payload
type AttachmentPayload struct {
	URL string `json:"url"`
}

// Postback represents a button tap
type Postback struct {
	MID     string `json:"mid,omitempty"`
	Title   string `json:"title,omitempty"`
	Payload string `json:"payload"`
}

// DedupKey returns the identifier Facebook assigns to the event, or "" when
// the event carries none.
func (m *Messaging) DedupKey() string {
	switch {
	case m.Message != nil && m.Message.MID != "":
		return "m:" + m.Message.MID
	case m.Postback != nil && m.Postback.MID != "":
		return "p:" + m.Postback.MID
	}
	return ""
}
