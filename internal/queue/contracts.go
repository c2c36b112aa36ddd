package queue

import (
	"context"

	"github.com/iago/briefcase/internal/domain"
)

// Handler processes one dossier job message. A returned error triggers a
// retry until the backend's attempt budget runs out.
type Handler func(ctx context.Context, message domain.QueueMessage) error

// Producer sends dossier jobs to a queue backend.
type Producer interface {
	Enqueue(ctx context.Context, message domain.QueueMessage) error
}

// Consumer receives dossier jobs and runs the handler until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, handler Handler) error
}
