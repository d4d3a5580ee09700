package handlers

import (
	"context"

	"messenger-bot/models"
)

// Replier delivers a response to a Messenger user. Implementations own
// failure handling; the bot never sees send errors.
type Replier interface {
	Reply(ctx context.Context, recipientID string, response *models.Response)
}

// Bot maps inbound messaging events to replies.
type Bot struct {
	replier Replier
}

func NewBot(replier Replier) *Bot {
	return &Bot{replier: replier}
}
