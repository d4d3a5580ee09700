package webhooks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"messenger-bot/logging"
	"messenger-bot/metrics"
	"messenger-bot/models"
)

// Event kinds recorded per messaging event.
const (
	kindMessage      = "message"
	kindPostback     = "postback"
	kindEcho         = "echo"
	kindDuplicate    = "duplicate"
	kindUnrecognized = "unrecognized"
)

// EventHandler reacts to one messaging event.
type EventHandler interface {
	HandleMessage(ctx context.Context, senderPsid string, message *models.Message)
	HandlePostback(ctx context.Context, senderPsid string, postback *models.Postback)
}

// Dispatcher fans the messaging events of a webhook delivery out to an
// EventHandler and waits for all of them.
type Dispatcher struct {
	handler EventHandler
	limit   int
	dedup   *Deduplicator
	metrics *metrics.Metrics
}

// NewDispatcher runs at most limit events at once. dedup and m may be nil.
func NewDispatcher(handler EventHandler, limit int, dedup *Deduplicator, m *metrics.Metrics) *Dispatcher {
	if limit < 1 {
		limit = 1
	}
	return &Dispatcher{
		handler: handler,
		limit:   limit,
		dedup:   dedup,
		metrics: m,
	}
}

// Dispatch hands every messaging event of every entry to the handler and
// returns once all of them have finished. A panicking event is logged and
// does not affect the others.
func (d *Dispatcher) Dispatch(ctx context.Context, event *models.WebhookEvent) {
	var g errgroup.Group
	g.SetLimit(d.limit)

	for _, entry := range event.Entry {
		if len(entry.Messaging) == 0 {
			slog.WarnContext(ctx, "Entry has no messaging events", "pageID", entry.ID)
			continue
		}

		for i := range entry.Messaging {
			messaging := &entry.Messaging[i]
			pageID := entry.ID
			g.Go(func() error {
				d.dispatchOne(ctx, pageID, messaging)
				return nil
			})
		}
	}

	_ = g.Wait()
}

func (d *Dispatcher) dispatchOne(ctx context.Context, pageID string, messaging *models.Messaging) {
	ctx = logging.WithAttrs(ctx, slog.String("pageID", pageID))

	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Recovered panic while handling messaging event",
				"senderID", messaging.Sender.ID,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	senderPsid := messaging.Sender.ID
	kind := classify(messaging)

	if kind == kindMessage || kind == kindPostback {
		if !d.dedup.FirstSeen(messaging.DedupKey()) {
			kind = kindDuplicate
		}
	}
	d.metrics.RecordEvent(kind)

	switch kind {
	case kindMessage:
		slog.InfoContext(ctx, "Handling message", "senderID", senderPsid)
		d.handler.HandleMessage(ctx, senderPsid, messaging.Message)
	case kindPostback:
		slog.InfoContext(ctx, "Handling postback", "senderID", senderPsid)
		d.handler.HandlePostback(ctx, senderPsid, messaging.Postback)
	case kindEcho:
		slog.DebugContext(ctx, "Skipping echo of page message")
	case kindDuplicate:
		slog.InfoContext(ctx, "Skipping replayed event", "senderID", senderPsid, "key", messaging.DedupKey())
	default:
		slog.WarnContext(ctx, "Unrecognized messaging event shape", "senderID", senderPsid)
	}
}

func classify(messaging *models.Messaging) string {
	switch {
	case messaging.Sender.ID == "":
		return kindUnrecognized
	case messaging.Message != nil && messaging.Message.IsEcho:
		return kindEcho
	case messaging.Message != nil:
		return kindMessage
	case messaging.Postback != nil:
		return kindPostback
	}
	return kindUnrecognized
}
