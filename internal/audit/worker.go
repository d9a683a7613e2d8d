package audit

import (
	"context"
	"log/slog"

	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations into
// domain services. Sink failures are logged and do not stop the worker;
// losing a mirror copy must never lose the primary record.
type Worker struct {
	store  Store
	sinks  []Sink
	inbox  <-chan pa.Event
	logger *slog.Logger
}

func NewWorker(store Store, inbox <-chan pa.Event, sinks []Sink, logger *slog.Logger) *Worker {
	return &Worker{store: store, sinks: sinks, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			for _, sink := range w.sinks {
				if err := sink.Append(ctx, event); err != nil && w.logger != nil {
					w.logger.WarnContext(ctx, "audit sink append failed",
						"action", event.Action, "error", err)
				}
			}
		}
	}
}
