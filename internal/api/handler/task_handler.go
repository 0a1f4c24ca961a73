package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/tasktracker/internal/api/metrics"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const headerIdempotencyKey = "Idempotency-Key"

// TaskHandler handles HTTP requests for task operations. Role checks happen
// in middleware; handlers only read the caller identity.
type TaskHandler struct {
	service ports.TaskService
}

func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// Create handles POST /v1/tasks.
//
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string             false  "Replay-safe creation key"
// @Param        body             body      createTaskRequest  true   "Task details"
// @Success      201              {object}  taskResponse
// @Failure      400              {object}  errorResponse
// @Failure      401              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      404              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/tasks [post]
func (h *TaskHandler) Create(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.service.CreateTask(c.Request().Context(), caller, ports.CreateTaskInput{
		Title:          req.Title,
		Description:    req.Description,
		DueDate:        req.DueDate,
		AssigneeID:     req.AssigneeID,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}

	metrics.TasksCreatedTotal.Inc()
	return c.JSON(http.StatusCreated, toTaskResponse(task))
}

// List handles GET /v1/tasks.
//
// @Summary      List tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        assignee_id    query     string  false  "Filter by assignee"
// @Param        status_filter  query     string  false  "Filter by status"  Enums(Pending, In Progress, Completed)
// @Param        sort_by        query     string  false  "Sort column"       Enums(created_at, due_date, status)
// @Param        order          query     string  false  "Sort direction"    Enums(asc, desc)
// @Success      200            {array}   taskResponse
// @Failure      401            {object}  errorResponse
// @Failure      403            {object}  errorResponse
// @Failure      422            {object}  errorResponse
// @Router       /v1/tasks [get]
func (h *TaskHandler) List(c echo.Context) error {
	if _, err := callerIdentity(c); err != nil {
		return err
	}

	tasks, err := h.service.ListTasks(c.Request().Context(), ports.ListTasksInput{
		AssigneeID: c.QueryParam("assignee_id"),
		Status:     c.QueryParam("status_filter"),
		SortBy:     c.QueryParam("sort_by"),
		Order:      c.QueryParam("order"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// MyTasks handles GET /v1/tasks/my-tasks.
//
// @Summary      List the caller's tasks
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   taskResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/tasks/my-tasks [get]
func (h *TaskHandler) MyTasks(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.MyTasks(c.Request().Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toTaskResponses(tasks))
}

// Summary handles GET /v1/tasks/task-summary.
//
// @Summary      Per-employee task counts
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   employeeSummaryResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/tasks/task-summary [get]
func (h *TaskHandler) Summary(c echo.Context) error {
	if _, err := callerIdentity(c); err != nil {
		return err
	}

	rows, err := h.service.EmployeeSummary(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toSummaryResponses(rows))
}

// UpdateStatus handles PUT /v1/tasks/:task_id.
//
// @Summary      Update a task's status
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        task_id  path      string                   true  "Task ID"
// @Param        body     body      updateTaskStatusRequest  true  "New status"
// @Success      200      {object}  taskResponse
// @Failure      400      {object}  errorResponse
// @Failure      401      {object}  errorResponse
// @Failure      403      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Router       /v1/tasks/{task_id} [put]
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.service.UpdateTaskStatus(c.Request().Context(), caller, c.Param("task_id"), req.Status)
	if err != nil {
		return err
	}

	metrics.TaskStatusUpdatesTotal.WithLabelValues(string(task.Status)).Inc()
	return c.JSON(http.StatusOK, toTaskResponse(task))
}

// Delete handles DELETE /v1/tasks/:task_id.
//
// @Summary      Delete a task
// @Tags         tasks
// @Security     BearerAuth
// @Param        task_id  path  string  true  "Task ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/tasks/{task_id} [delete]
func (h *TaskHandler) Delete(c echo.Context) error {
	caller, err := callerIdentity(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteTask(c.Request().Context(), caller, c.Param("task_id")); err != nil {
		return err
	}

	metrics.TasksDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
