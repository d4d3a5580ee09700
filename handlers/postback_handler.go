package handlers

import (
	"context"
	"log/slog"

	"messenger-bot/models"
)

// Postback payloads carried by the confirmation card buttons.
const (
	PayloadYes = "yes"
	PayloadNo  = "no"
)

const (
	ackText   = "Thanks!"
	retryText = "Oops, try sending another image."
)

// HandlePostback processes messaging_postbacks events
func (b *Bot) HandlePostback(ctx context.Context, senderPsid string, postback *models.Postback) {
	response, ok := BuildPostbackResponse(postback)
	if !ok {
		payload := ""
		if postback != nil {
			payload = postback.Payload
		}
		slog.WarnContext(ctx, "Unknown postback payload, ignoring", "senderID", senderPsid, "payload", payload)
		return
	}

	b.replier.Reply(ctx, senderPsid, response)
}

// BuildPostbackResponse returns the acknowledgment for a card button tap.
func BuildPostbackResponse(postback *models.Postback) (*models.Response, bool) {
	if postback == nil {
		return nil, false
	}

	switch postback.Payload {
	case PayloadYes:
		return &models.Response{Text: ackText}, true
	case PayloadNo:
		return &models.Response{Text: retryText}, true
	}
	return nil, false
}
