package ports

import (
	"context"
	"time"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

// CreateTaskInput carries all data needed to create a task.
type CreateTaskInput struct {
	Title          string
	Description    string
	DueDate        *time.Time
	AssigneeID     string
	IdempotencyKey string
}

// ListTasksInput carries the raw list parameters; the service validates them.
type ListTasksInput struct {
	AssigneeID string
	Status     string
	SortBy     string
	Order      string
}

// TaskService defines task use cases. The caller identity is always passed
// explicitly; nothing is read from shared state.
type TaskService interface {
	CreateTask(ctx context.Context, caller domain.Identity, input CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, input ListTasksInput) ([]*domain.Task, error)
	MyTasks(ctx context.Context, caller domain.Identity) ([]*domain.Task, error)
	UpdateTaskStatus(ctx context.Context, caller domain.Identity, taskID, status string) (*domain.Task, error)
	DeleteTask(ctx context.Context, caller domain.Identity, taskID string) error
	EmployeeSummary(ctx context.Context) ([]domain.EmployeeTaskSummary, error)
}
