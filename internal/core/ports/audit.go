package ports

import (
	"context"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// AuditRepository persists task events to the audit trail.
type AuditRepository interface {
	InsertTaskEvent(ctx context.Context, event *domain.TaskEvent) error
}

// AuditSink accepts task events for recording. Implementations must not
// block the caller on storage.
type AuditSink interface {
	Record(event domain.TaskEvent)
}

// NopAuditSink discards every event. Used when no audit store is configured.
type NopAuditSink struct{}

func (NopAuditSink) Record(domain.TaskEvent) {}
