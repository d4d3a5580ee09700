package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"messenger-bot/models"
)

const (
	pictureTitle    = "Is this the right picture?"
	pictureSubtitle = "Tap a button to answer."
)

// HandleMessage processes incoming messages
func (b *Bot) HandleMessage(ctx context.Context, senderPsid string, message *models.Message) {
	response, ok := BuildMessageResponse(message)
	if !ok {
		slog.WarnContext(ctx, "Message has no text or image attachment, ignoring", "senderID", senderPsid)
		return
	}

	b.replier.Reply(ctx, senderPsid, response)
}

// BuildMessageResponse returns the reply for a received message: an echo of
// its text, or a yes/no confirmation card for its first attachment. An
// attachment without a URL (location, fallback) gets no reply.
func BuildMessageResponse(message *models.Message) (*models.Response, bool) {
	if message == nil {
		return nil, false
	}

	// Checks if the message contains text
	if message.Text != "" {
		return &models.Response{
			Text: fmt.Sprintf("You sent the message: '%s'. Now send me an attachment!", message.Text),
		}, true
	}

	if len(message.Attachments) > 0 {
		attachmentURL := message.Attachments[0].Payload.URL
		if attachmentURL == "" {
			return nil, false
		}
		return &models.Response{
			Attachment: &models.ResponseAttachment{
				Type: models.AttachmentTypeTemplate,
				Payload: models.TemplatePayload{
					TemplateType: models.TemplateTypeGeneric,
					Elements: []models.TemplateElement{{
						Title:    pictureTitle,
						Subtitle: pictureSubtitle,
						ImageURL: attachmentURL,
						Buttons: []models.Button{
							{Type: models.ButtonTypePostback, Title: "Yes!", Payload: PayloadYes},
							{Type: models.ButtonTypePostback, Title: "No!", Payload: PayloadNo},
						},
					}},
				},
			},
		}, true
	}

	return nil, false
}
