package domain

import "time"

// TaskStatus represents the lifecycle state of a task. Progression is
// Pending -> In Progress -> Completed by convention; it is not enforced.
type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseTaskStatus converts s into a TaskStatus.
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.Valid() {
		return "", ErrValidation
	}
	return st, nil
}

// Task is a unit of work created by an employer and assigned to an employee.
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	DueDate     *time.Time `json:"due_date" db:"due_date"`
	AssigneeID  string     `json:"assignee_id" db:"assignee_id"`
	CreatorID   string     `json:"creator_id" db:"creator_id"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty" db:"updated_at"`
	UpdatedBy   *string    `json:"updated_by,omitempty" db:"updated_by"`
}

// EmployeeTaskSummary aggregates task counts for a single employee.
type EmployeeTaskSummary struct {
	EmployeeID     string `db:"employee_id"`
	Username       string `db:"username"`
	TotalTasks     int    `db:"total_tasks"`
	CompletedTasks int    `db:"completed_tasks"`
}
