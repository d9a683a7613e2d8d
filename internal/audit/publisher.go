package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
	"github.com/ssmadhavan006/zkredit/pkg/requestcontext"
)

// Publisher captures structured audit events. Emit stamps defaults and hands
// the event to a buffered inbox; the Worker drains the inbox into the store
// and any extra sinks so domain calls never block on audit I/O.
type Publisher struct {
	inbox  chan pa.Event
	logger *slog.Logger
}

type PublisherOption func(*Publisher)

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher with a buffered inbox of the given size.
func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{inbox: make(chan pa.Event, buffer)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit stamps the event and enqueues it. A full inbox drops the event rather
// than stalling a settlement; the drop is logged for operators.
func (p *Publisher) Emit(ctx context.Context, event pa.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Category == "" {
		event.Category = pa.CategoryFor(pa.AuditEvent(event.Action))
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
		return nil
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping event",
				"action", event.Action, "actor", event.Actor)
		}
		return nil
	}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan pa.Event {
	return p.inbox
}
