package webhooks

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"messenger-bot/config"
	"messenger-bot/logging"
	"messenger-bot/metrics"
	"messenger-bot/middleware"
	"messenger-bot/models"
)

const (
	modeSubscribe = "subscribe"

	// DiagnosticBody answers GET requests that carry no handshake parameters.
	DiagnosticBody = "facebook bot test"
	// EventReceived acknowledges a page event delivery.
	EventReceived = "EVENT_RECEIVED"

	allowedMethods = "GET, HEAD, POST"
)

func RegisterRoutes(app *fiber.App, cfg *config.Config, dispatcher *Dispatcher, m *metrics.Metrics) {
	path := cfg.WebhookPath

	// Webhook verification endpoint
	app.Get(path, verifyWebhook(cfg, m))

	// Webhook event handler
	app.Post(path, middleware.VerifySignature(cfg.AppSecret), handleWebhookEvent(dispatcher))

	// Everything else on the webhook path
	app.All(path, methodNotAllowed)
}

// verifyWebhook handles Facebook webhook verification
func verifyWebhook(cfg *config.Config, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req := models.VerificationRequest{
			Mode:      c.Query("hub.mode"),
			Token:     c.Query("hub.verify_token"),
			Challenge: c.Query("hub.challenge"),
		}

		// Not a handshake: answer as a liveness probe
		if req.Mode == "" || req.Token == "" {
			return c.SendString(DiagnosticBody)
		}

		if req.Mode == modeSubscribe && tokensEqual(req.Token, cfg.VerifyToken) {
			slog.Info("WEBHOOK_VERIFIED")
			m.RecordVerification("verified")
			return c.SendString(req.Challenge)
		}

		slog.Warn("Webhook verification failed", "mode", req.Mode)
		m.RecordVerification("rejected")
		return c.Status(fiber.StatusForbidden).Send(nil)
	}
}

// handleWebhookEvent parses a delivery, dispatches its events and
// acknowledges it once every dispatch has finished.
func handleWebhookEvent(dispatcher *Dispatcher) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := logging.WithCorrelationID(c.UserContext(), logging.NewCorrelationID())

		body, err := ParseWebhookEvent(ctx, c.Body())
		if err != nil {
			slog.WarnContext(ctx, "Failed to parse webhook body", "error", err)
			return c.SendStatus(fiber.StatusBadRequest)
		}

		// Only process page events
		if body.Object != models.ObjectPage {
			slog.InfoContext(ctx, "Ignoring non-page webhook", "object", body.Object)
			return c.Status(fiber.StatusNotFound).Send(nil)
		}

		slog.InfoContext(ctx, "Received page event", "entries", len(body.Entry))
		dispatcher.Dispatch(ctx, body)

		return c.SendString(EventReceived)
	}
}

func methodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, allowedMethods)
	return c.SendStatus(fiber.StatusMethodNotAllowed)
}

// envelope is the outer shape of a delivery. Fields stay raw so a payload
// with unexpected field types is still routed on its object.
type envelope struct {
	Object json.RawMessage `json:"object"`
	Entry  json.RawMessage `json:"entry"`
}

// ParseWebhookEvent decodes a delivery body. A body that is itself a JSON
// string holding the payload is unwrapped first. Only a body that is not a
// JSON object is an error. Object is empty unless it is a JSON string, and
// entries are decoded for page deliveries only; an entry that does not fit
// the Entry shape is logged and skipped.
func ParseWebhookEvent(ctx context.Context, raw []byte) (*models.WebhookEvent, error) {
	data := bytes.TrimSpace(raw)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode string body: %w", err)
		}
		data = []byte(inner)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}

	event := &models.WebhookEvent{}
	if err := json.Unmarshal(env.Object, &event.Object); err != nil {
		event.Object = ""
	}
	if event.Object != models.ObjectPage {
		return event, nil
	}

	event.Entry = decodeEntries(ctx, env.Entry)
	return event, nil
}

func decodeEntries(ctx context.Context, raw json.RawMessage) []models.Entry {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.WarnContext(ctx, "Webhook entry field is not a list, ignoring", "error", err)
		return nil
	}

	entries := make([]models.Entry, 0, len(items))
	for i, item := range items {
		var entry models.Entry
		if err := json.Unmarshal(item, &entry); err != nil {
			slog.WarnContext(ctx, "Skipping malformed webhook entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

func tokensEqual(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}
