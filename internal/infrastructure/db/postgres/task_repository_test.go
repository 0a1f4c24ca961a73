package postgres

import (
	"strings"
	"testing"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

func TestBuildListQuery_NoFilters(t *testing.T) {
	query, args := buildListQuery(ports.ListTasksFilter{SortBy: ports.SortByCreatedAt, Order: ports.OrderAsc})

	if strings.Contains(query, "WHERE") {
		t.Errorf("unexpected WHERE clause: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY created_at ASC NULLS LAST, id ASC") {
		t.Errorf("unexpected ORDER BY: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildListQuery_Filters(t *testing.T) {
	query, args := buildListQuery(ports.ListTasksFilter{
		AssigneeID: "a-1",
		Status:     domain.StatusCompleted,
		SortBy:     ports.SortByDueDate,
		Order:      ports.OrderDesc,
	})

	if !strings.Contains(query, "WHERE assignee_id = $1 AND status = $2::task_status") {
		t.Errorf("unexpected WHERE clause: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY due_date DESC NULLS LAST, id ASC") {
		t.Errorf("unexpected ORDER BY: %s", query)
	}
	if len(args) != 2 || args[0] != "a-1" || args[1] != "Completed" {
		t.Errorf("unexpected args %v", args)
	}
}

func TestBuildListQuery_StatusOnlyUsesFirstPlaceholder(t *testing.T) {
	query, args := buildListQuery(ports.ListTasksFilter{Status: domain.StatusPending})

	if !strings.Contains(query, "WHERE status = $1::task_status") {
		t.Errorf("unexpected WHERE clause: %s", query)
	}
	if len(args) != 1 {
		t.Errorf("expected 1 arg, got %v", args)
	}
}

func TestBuildListQuery_UnknownSortFallsBack(t *testing.T) {
	query, _ := buildListQuery(ports.ListTasksFilter{SortBy: "title; DROP TABLE tasks", Order: "sideways"})

	if strings.Contains(query, "DROP") {
		t.Fatalf("sort column must never be interpolated: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY created_at ASC NULLS LAST, id ASC") {
		t.Errorf("unexpected ORDER BY: %s", query)
	}
}
