package handler

import "time"

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Users ---

type registerRequest struct {
	Username string `json:"username" form:"username" validate:"required,max=64"`
	Password string `json:"password" form:"password" validate:"required,max=72"`
	Role     string `json:"role"     form:"role"     validate:"required,oneof=Employee Employer"`
}

type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// --- Tasks ---

type createTaskRequest struct {
	Title       string     `json:"title"       validate:"required,max=200"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	AssigneeID  string     `json:"assignee_id" validate:"required,uuid"`
}

type updateTaskStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type taskResponse struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	DueDate     *string `json:"due_date"`
	AssigneeID  string  `json:"assignee_id"`
	CreatorID   string  `json:"creator_id"`
	UpdatedAt   *string `json:"updated_at"`
	UpdatedBy   *string `json:"updated_by"`
}

type employeeSummaryResponse struct {
	EmployeeID     string `json:"employee_id"`
	Username       string `json:"username"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
}
