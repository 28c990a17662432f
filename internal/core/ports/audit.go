package ports

import (
	"context"

	"github.com/iare/sceh-portal/internal/core/domain"
)

// AuditRepository stores session events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.SessionEvent) error
}

// AuditService writes a single session event.
type AuditService interface {
	Record(ctx context.Context, event domain.SessionEvent) error
}

// Auditor accepts events for asynchronous recording. Enqueue must not block.
type Auditor interface {
	Enqueue(event domain.SessionEvent)
}
