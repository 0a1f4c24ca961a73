package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byUsername map[string]*domain.User
	createErr  error
	findErr    error
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byUsername: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if _, ok := r.byUsername[u.Username]; ok {
		return domain.ErrUserExists
	}
	r.byUsername[u.Username] = cloneUser(u)
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.byUsername[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	for _, u := range r.byUsername {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) seed(id, username string, role domain.Role) *domain.User {
	u := &domain.User{ID: id, Username: username, Role: role, CreatedAt: time.Now().UTC()}
	r.byUsername[username] = u
	return u
}

type stubTaskRepo struct {
	byID       map[string]*domain.Task
	createErr  error
	lastFilter ports.ListTasksFilter
}

func newStubTaskRepo() *stubTaskRepo {
	return &stubTaskRepo{byID: make(map[string]*domain.Task)}
}

func cloneTask(t *domain.Task) *domain.Task {
	clone := *t
	return &clone
}

func (r *stubTaskRepo) Create(_ context.Context, t *domain.Task) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.byID[t.ID] = cloneTask(t)
	return nil
}

func (r *stubTaskRepo) FindByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// List applies the assignee and status filters; ordering is by created_at.
func (r *stubTaskRepo) List(_ context.Context, f ports.ListTasksFilter) ([]*domain.Task, error) {
	r.lastFilter = f
	out := []*domain.Task{}
	for _, t := range r.byID {
		if f.AssigneeID != "" && t.AssigneeID != f.AssigneeID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *stubTaskRepo) UpdateStatus(_ context.Context, id string, status domain.TaskStatus, updatedBy string, at time.Time) (*domain.Task, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	t.Status = status
	t.UpdatedBy = &updatedBy
	t.UpdatedAt = &at
	return cloneTask(t), nil
}

func (r *stubTaskRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubTaskRepo) EmployeeSummary(_ context.Context) ([]domain.EmployeeTaskSummary, error) {
	counts := map[string]*domain.EmployeeTaskSummary{}
	for _, t := range r.byID {
		s, ok := counts[t.AssigneeID]
		if !ok {
			s = &domain.EmployeeTaskSummary{EmployeeID: t.AssigneeID}
			counts[t.AssigneeID] = s
		}
		s.TotalTasks++
		if t.Status == domain.StatusCompleted {
			s.CompletedTasks++
		}
	}
	out := make([]domain.EmployeeTaskSummary, 0, len(counts))
	for _, s := range counts {
		out = append(out, *s)
	}
	return out, nil
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.TaskEvent
}

func (s *recordingSink) Record(e domain.TaskEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

type stubIdempotency struct {
	keys      map[string]string
	lookupErr error
}

func newStubIdempotency() *stubIdempotency {
	return &stubIdempotency{keys: make(map[string]string)}
}

func (s *stubIdempotency) Lookup(_ context.Context, key string) (string, bool, error) {
	if s.lookupErr != nil {
		return "", false, s.lookupErr
	}
	id, ok := s.keys[key]
	return id, ok, nil
}

func (s *stubIdempotency) Remember(_ context.Context, key, taskID string) error {
	s.keys[key] = taskID
	return nil
}

type stubIssuer struct {
	subject string
	ttl     time.Duration
	err     error
}

func (s *stubIssuer) Issue(subject string, ttl time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.subject, s.ttl = subject, ttl
	return "signed." + subject, nil
}

var errBoom = errors.New("boom")
