package ports

import (
	"context"
	"time"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// Sortable task columns.
const (
	SortByCreatedAt = "created_at"
	SortByDueDate   = "due_date"
	SortByStatus    = "status"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// ListTasksFilter carries the optional filters and ordering for task listing.
// SortBy and Order are validated by the service before reaching a repository.
type ListTasksFilter struct {
	AssigneeID string            // empty = any assignee
	Status     domain.TaskStatus // empty = any status
	SortBy     string
	Order      string
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter ListTasksFilter) ([]*domain.Task, error)
	// UpdateStatus sets status, updated_by and updated_at and returns the
	// stored task. A missing task yields domain.ErrTaskNotFound.
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, updatedBy string, at time.Time) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
	// EmployeeSummary returns one row per user holding the Employee role.
	EmployeeSummary(ctx context.Context) ([]domain.EmployeeTaskSummary, error)
}
