package handler

import (
	"time"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		DueDate:     formatTime(t.DueDate),
		AssigneeID:  t.AssigneeID,
		CreatorID:   t.CreatorID,
		UpdatedAt:   formatTime(t.UpdatedAt),
		UpdatedBy:   t.UpdatedBy,
	}
}

func toTaskResponses(tasks []*domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	return out
}

func toSummaryResponses(rows []domain.EmployeeTaskSummary) []employeeSummaryResponse {
	out := make([]employeeSummaryResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, employeeSummaryResponse{
			EmployeeID:     r.EmployeeID,
			Username:       r.Username,
			TotalTasks:     r.TotalTasks,
			CompletedTasks: r.CompletedTasks,
		})
	}
	return out
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
