package domain

import "time"

// TaskEventType names the kind of change recorded in the audit trail.
type TaskEventType string

const (
	TaskEventCreated       TaskEventType = "created"
	TaskEventStatusChanged TaskEventType = "status_changed"
	TaskEventDeleted       TaskEventType = "deleted"
)

// TaskEvent is an audit record of a mutation applied to a task.
type TaskEvent struct {
	TaskID     string
	Type       TaskEventType
	Status     TaskStatus // status after the change; empty for deletions
	ActorID    string
	ActorRole  Role
	OccurredAt time.Time
}
