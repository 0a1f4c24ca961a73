package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const tracerName = "github.com/taskboard/tasktracker/internal/core/service"

// TaskService implements the task use cases.
type TaskService struct {
	tasks  ports.TaskRepository
	users  ports.UserRepository
	audit  ports.AuditSink
	idem   ports.IdempotencyStore // optional
	log    zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewTaskService wires a TaskService. idem may be nil; audit defaults to a
// no-op sink.
func NewTaskService(
	tasks ports.TaskRepository,
	users ports.UserRepository,
	audit ports.AuditSink,
	idem ports.IdempotencyStore,
	log zerolog.Logger,
) *TaskService {
	if audit == nil {
		audit = ports.NopAuditSink{}
	}
	return &TaskService{
		tasks:  tasks,
		users:  users,
		audit:  audit,
		idem:   idem,
		log:    log,
		tracer: otel.Tracer(tracerName),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// CreateTask creates a Pending task assigned to an employee. A replayed
// Idempotency-Key returns the task created the first time.
func (s *TaskService) CreateTask(ctx context.Context, caller domain.Identity, in ports.CreateTaskInput) (*domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.Create")
	defer span.End()

	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("create task: %w: title is required", domain.ErrValidation)
	}
	if _, err := uuid.Parse(in.AssigneeID); err != nil {
		return nil, fmt.Errorf("create task: %w: assignee_id must be a UUID", domain.ErrValidation)
	}

	idemKey := scopedKey(caller, in.IdempotencyKey)
	if existing := s.replay(ctx, caller, idemKey); existing != nil {
		return existing, nil
	}

	// 1. The assignee must currently hold the Employee role.
	assignee, err := s.users.FindByID(ctx, in.AssigneeID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrAssigneeNotFound
		}
		return nil, fmt.Errorf("create task: find assignee: %w", err)
	}
	if assignee.Role != domain.RoleEmployee {
		return nil, domain.ErrAssigneeNotFound
	}

	// 2. Persist.
	now := s.now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.StatusPending,
		CreatedAt:   now,
		AssigneeID:  assignee.ID,
		CreatorID:   caller.ID,
	}
	if in.DueDate != nil {
		due := in.DueDate.UTC()
		task.DueDate = &due
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		s.log.Error().Err(err).Msg("failed to create task")
		return nil, fmt.Errorf("create task: %w", err)
	}

	// 3. Remember the key (non-fatal).
	if idemKey != "" && s.idem != nil {
		if err := s.idem.Remember(ctx, idemKey, task.ID); err != nil {
			s.log.Warn().Err(err).Str("task_id", task.ID).Msg("failed to store idempotency key")
		}
	}

	s.record(task.ID, domain.TaskEventCreated, task.Status, caller, now)
	span.SetAttributes(attribute.String("task.id", task.ID))
	s.log.Info().Str("task_id", task.ID).Str("assignee_id", task.AssigneeID).Str("creator_id", caller.ID).Msg("task created")
	return task, nil
}

// scopedKey prefixes an Idempotency-Key with the caller id. Replays never
// cross creators.
func scopedKey(caller domain.Identity, key string) string {
	if key == "" {
		return ""
	}
	return caller.ID + ":" + key
}

func (s *TaskService) replay(ctx context.Context, caller domain.Identity, key string) *domain.Task {
	if key == "" || s.idem == nil {
		return nil
	}
	taskID, found, err := s.idem.Lookup(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency lookup failed, creating anyway")
		return nil
	}
	if !found {
		return nil
	}
	existing, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", taskID).Msg("idempotency key points to missing task")
		return nil
	}
	if existing.CreatorID != caller.ID {
		s.log.Warn().Str("task_id", taskID).Str("caller_id", caller.ID).Msg("idempotency key owned by another creator")
		return nil
	}
	s.log.Info().Str("task_id", existing.ID).Msg("idempotent replay")
	return existing
}

// ListTasks returns tasks matching the optional filters, ordered by the
// requested column (created_at ascending by default).
func (s *TaskService) ListTasks(ctx context.Context, in ports.ListTasksInput) ([]*domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.List")
	defer span.End()

	filter := ports.ListTasksFilter{
		SortBy: in.SortBy,
		Order:  in.Order,
	}
	if filter.SortBy == "" {
		filter.SortBy = ports.SortByCreatedAt
	}
	if filter.Order == "" {
		filter.Order = ports.OrderAsc
	}
	switch filter.SortBy {
	case ports.SortByCreatedAt, ports.SortByDueDate, ports.SortByStatus:
	default:
		return nil, fmt.Errorf("list tasks: %w: sort_by must be one of created_at, due_date, status", domain.ErrValidation)
	}
	if filter.Order != ports.OrderAsc && filter.Order != ports.OrderDesc {
		return nil, fmt.Errorf("list tasks: %w: order must be asc or desc", domain.ErrValidation)
	}
	if in.AssigneeID != "" {
		if _, err := uuid.Parse(in.AssigneeID); err != nil {
			return nil, fmt.Errorf("list tasks: %w: assignee_id must be a UUID", domain.ErrValidation)
		}
		filter.AssigneeID = in.AssigneeID
	}
	if in.Status != "" {
		st, err := domain.ParseTaskStatus(in.Status)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w: unknown status %q", err, in.Status)
		}
		filter.Status = st
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// MyTasks returns the tasks assigned to the caller.
func (s *TaskService) MyTasks(ctx context.Context, caller domain.Identity) ([]*domain.Task, error) {
	tasks, err := s.tasks.List(ctx, ports.ListTasksFilter{
		AssigneeID: caller.ID,
		SortBy:     ports.SortByCreatedAt,
		Order:      ports.OrderAsc,
	})
	if err != nil {
		return nil, fmt.Errorf("my tasks: %w", err)
	}
	return tasks, nil
}

// UpdateTaskStatus sets the status of a task and stamps it with the caller.
// Any employee may update any task; ownership is not checked.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, caller domain.Identity, taskID, status string) (*domain.Task, error) {
	ctx, span := s.tracer.Start(ctx, "task.UpdateStatus", trace.WithAttributes(attribute.String("task.id", taskID)))
	defer span.End()

	if _, err := uuid.Parse(taskID); err != nil {
		return nil, fmt.Errorf("update task: %w: task_id must be a UUID", domain.ErrValidation)
	}
	st, err := domain.ParseTaskStatus(status)
	if err != nil {
		return nil, fmt.Errorf("update task: %w: unknown status %q", err, status)
	}

	now := s.now()
	task, err := s.tasks.UpdateStatus(ctx, taskID, st, caller.ID, now)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	s.record(task.ID, domain.TaskEventStatusChanged, st, caller, now)
	s.log.Info().Str("task_id", task.ID).Str("status", string(st)).Str("updated_by", caller.ID).Msg("task status updated")
	return task, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, caller domain.Identity, taskID string) error {
	if _, err := uuid.Parse(taskID); err != nil {
		return fmt.Errorf("delete task: %w: task_id must be a UUID", domain.ErrValidation)
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("delete task: %w", err)
	}

	s.record(taskID, domain.TaskEventDeleted, "", caller, s.now())
	s.log.Info().Str("task_id", taskID).Str("deleted_by", caller.ID).Msg("task deleted")
	return nil
}

// EmployeeSummary returns total and completed task counts per employee.
func (s *TaskService) EmployeeSummary(ctx context.Context) ([]domain.EmployeeTaskSummary, error) {
	summary, err := s.tasks.EmployeeSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("employee summary: %w", err)
	}
	return summary, nil
}

func (s *TaskService) record(taskID string, typ domain.TaskEventType, status domain.TaskStatus, caller domain.Identity, at time.Time) {
	s.audit.Record(domain.TaskEvent{
		TaskID:     taskID,
		Type:       typ,
		Status:     status,
		ActorID:    caller.ID,
		ActorRole:  caller.Role,
		OccurredAt: at,
	})
}
