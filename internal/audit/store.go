package audit

import (
	"context"

	id "github.com/ssmadhavan006/zkredit/pkg/domain"
	pa "github.com/ssmadhavan006/zkredit/pkg/platform/audit"
)

// Sink receives audit events without exposing reads. Kafka and other
// fire-and-forget destinations implement only this.
type Sink interface {
	Append(ctx context.Context, event pa.Event) error
}

// Store persists audit events and supports per-actor reads for the admin
// surface. Swap with concrete storage without touching the publisher.
type Store interface {
	Sink
	ListByActor(ctx context.Context, actor id.ActorID) ([]pa.Event, error)
}
