package models

const (
	// MessagingTypeResponse marks a message sent in reply to a received message.
	MessagingTypeResponse = "RESPONSE"

	AttachmentTypeTemplate = "template"
	TemplateTypeGeneric    = "generic"
	ButtonTypePostback     = "postback"
)

// SendRequest is the body posted to the Send API
type SendRequest struct {
	MessagingType string    `json:"messaging_type"`
	Recipient     User      `json:"recipient"`
	Message       *Response `json:"message"`
}

// Response is an outbound message: either Text or Attachment is set.
type Response struct {
	Text       string              `json:"text,omitempty"`
	Attachment *ResponseAttachment `json:"attachment,omitempty"`
}

type ResponseAttachment struct {
	Type    string          `json:"type"`
	Payload TemplatePayload `json:"payload"`
}

type TemplatePayload struct {
	TemplateType string            `json:"template_type"`
	Elements     []TemplateElement `json:"elements"`
}

type TemplateElement struct {
	Title    string   `json:"title"`
	Subtitle string   `json:"subtitle,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Buttons  []Button `json:"buttons,omitempty"`
}

type Button struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// NewSendRequest wraps a response for the given recipient PSID.
func NewSendRequest(psid string, response *Response) *SendRequest {
	return &SendRequest{
		MessagingType: MessagingTypeResponse,
		Recipient:     User{ID: psid},
		Message:       response,
	}
}
