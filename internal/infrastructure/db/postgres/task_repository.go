package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const taskColumns = `id, title, description, status, created_at, due_date,
	assignee_id, creator_id, updated_at, updated_by`

// sortColumns whitelists the columns a caller may order by.
var sortColumns = map[string]string{
	ports.SortByCreatedAt: "created_at",
	ports.SortByDueDate:   "due_date",
	ports.SortByStatus:    "status",
}

// TaskRepository implements ports.TaskRepository using Postgres.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, created_at, due_date, assignee_id, creator_id)
		VALUES ($1, $2, $3, $4::task_status, $5, $6, $7, $8)`,
		t.ID, t.Title, t.Description, string(t.Status), t.CreatedAt, t.DueDate, t.AssigneeID, t.CreatorID,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (*domain.Task, error) {
	var t domain.Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, f ports.ListTasksFilter) ([]*domain.Task, error) {
	query, args := buildListQuery(f)

	tasks := []*domain.Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// buildListQuery renders the filtered, ordered SELECT for f. Unknown sort
// columns fall back to created_at; NULL values always sort last.
func buildListQuery(f ports.ListTasksFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	if f.AssigneeID != "" {
		args = append(args, f.AssigneeID)
		where = append(where, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("status = $%d::task_status", len(args)))
	}

	col, ok := sortColumns[f.SortBy]
	if !ok {
		col = "created_at"
	}
	dir := "ASC"
	if f.Order == ports.OrderDesc {
		dir = "DESC"
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	fmt.Fprintf(&b, " ORDER BY %s %s NULLS LAST, id ASC", col, dir)
	return b.String(), args
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, updatedBy string, at time.Time) (*domain.Task, error) {
	var t domain.Task
	err := r.db.GetContext(ctx, &t, `
		UPDATE tasks
		SET status = $2::task_status, updated_by = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+taskColumns,
		id, string(status), updatedBy, at,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return &t, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) EmployeeSummary(ctx context.Context) ([]domain.EmployeeTaskSummary, error) {
	summary := []domain.EmployeeTaskSummary{}
	err := r.db.SelectContext(ctx, &summary, `
		SELECT u.id AS employee_id,
		       u.username,
		       COUNT(t.id) AS total_tasks,
		       COUNT(t.id) FILTER (WHERE t.status = 'Completed') AS completed_tasks
		FROM users u
		LEFT JOIN tasks t ON t.assignee_id = u.id
		WHERE u.role = 'Employee'
		GROUP BY u.id, u.username
		ORDER BY u.username`)
	if err != nil {
		return nil, fmt.Errorf("employee summary: %w", err)
	}
	return summary, nil
}
