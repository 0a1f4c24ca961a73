package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/taskboard/tasktracker/internal/api/handler"
	"github.com/taskboard/tasktracker/internal/core/auth"
	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
	"github.com/taskboard/tasktracker/internal/core/service"
)

// ---------------------------------------------------------------------------
// Error handler
// ---------------------------------------------------------------------------

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.ErrUnauthenticated, http.StatusUnauthorized, "could not validate credentials"},
		{fmt.Errorf("login: %w", domain.ErrInvalidCredentials), http.StatusUnauthorized, "incorrect username or password"},
		{domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{domain.ErrTaskNotFound, http.StatusNotFound, "task not found"},
		{domain.ErrAssigneeNotFound, http.StatusNotFound, "assignee not found or not an employee"},
		{domain.ErrUserExists, http.StatusConflict, "could not create user"},
		{fmt.Errorf("create task: %w: title is required", domain.ErrValidation), http.StatusUnprocessableEntity, "validation failed: title is required"},
		{echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{errors.New("pq: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	e := echo.New()
	handle := NewHTTPErrorHandler(zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			handle(tc.err, c)

			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
			var resp errorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if resp.Error != tc.msg {
				t.Fatalf("expected %q, got %q", tc.msg, resp.Error)
			}
		})
	}
}

func TestHTTPErrorHandler_UnauthorizedSetsChallenge(t *testing.T) {
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrUnauthenticated, c)

	if got := rec.Header().Get(echo.HeaderWWWAuthenticate); got != "Bearer" {
		t.Fatalf("expected WWW-Authenticate: Bearer, got %q", got)
	}
}

// ---------------------------------------------------------------------------
// Router (end to end with the real token authenticator)
// ---------------------------------------------------------------------------

type memUsers map[string]*domain.User

func (m memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	if u, ok := m[username]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range m {
		if u.ID == id {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	if _, ok := m[u.Username]; ok {
		return domain.ErrUserExists
	}
	clone := *u
	m[u.Username] = &clone
	return nil
}

type fakeUsers struct{ tokens *auth.TokenService }

func (f fakeUsers) Register(_ context.Context, username, _, role string) (*domain.User, error) {
	if username == "taken" {
		return nil, domain.ErrUserExists
	}
	return &domain.User{ID: "new", Username: username, Role: domain.Role(role)}, nil
}

func (f fakeUsers) Login(_ context.Context, username, password string) (string, error) {
	if password != "pw" {
		return "", domain.ErrInvalidCredentials
	}
	return f.tokens.Issue(username, time.Hour)
}

type fakeTasks struct{}

func (fakeTasks) CreateTask(_ context.Context, caller domain.Identity, in ports.CreateTaskInput) (*domain.Task, error) {
	return &domain.Task{ID: "t-1", Title: in.Title, Status: domain.StatusPending, AssigneeID: in.AssigneeID, CreatorID: caller.ID}, nil
}

func (fakeTasks) ListTasks(context.Context, ports.ListTasksInput) ([]*domain.Task, error) {
	return []*domain.Task{}, nil
}

func (fakeTasks) MyTasks(context.Context, domain.Identity) ([]*domain.Task, error) {
	return []*domain.Task{}, nil
}

func (fakeTasks) UpdateTaskStatus(_ context.Context, caller domain.Identity, taskID, status string) (*domain.Task, error) {
	if taskID == "missing" {
		return nil, domain.ErrTaskNotFound
	}
	by := caller.ID
	return &domain.Task{ID: taskID, Status: domain.TaskStatus(status), UpdatedBy: &by}, nil
}

func (fakeTasks) DeleteTask(context.Context, domain.Identity, string) error { return nil }

func (fakeTasks) EmployeeSummary(context.Context) ([]domain.EmployeeTaskSummary, error) {
	return []domain.EmployeeTaskSummary{}, nil
}

func newTestRouter(t *testing.T) (*echo.Echo, *auth.TokenService) {
	t.Helper()
	tokens, err := auth.NewTokenService("router-secret", "HS256")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	users := memUsers{
		"alice": {ID: "11111111-1111-1111-1111-111111111111", Username: "alice", Role: domain.RoleEmployee},
		"erin":  {ID: "22222222-2222-2222-2222-222222222222", Username: "erin", Role: domain.RoleEmployer},
	}
	e := NewRouter(Dependencies{
		Log:           zerolog.Nop(),
		Authenticator: auth.NewTokenAuthenticator(tokens, users, zerolog.Nop()),
		Users:         fakeUsers{tokens: tokens},
		Tasks:         fakeTasks{},
		Readiness:     map[string]handler.Check{},
		Registry:      prometheus.NewRegistry(),
	})
	return e, tokens
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_LoginThenUseToken(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodPost, "/v1/users/login", "", `{"username":"erin","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if tok.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", tok.TokenType)
	}

	rec = do(e, http.MethodGet, "/v1/tasks", tok.AccessToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RoleGates(t *testing.T) {
	e, tokens := newTestRouter(t)
	employer, _ := tokens.Issue("erin", time.Hour)
	employee, _ := tokens.Issue("alice", time.Hour)
	taskBody := `{"title":"x","assignee_id":"11111111-1111-1111-1111-111111111111"}`

	cases := []struct {
		name, method, path, token, body string
		want                            int
	}{
		{"employer creates", http.MethodPost, "/v1/tasks", employer, taskBody, http.StatusCreated},
		{"employee cannot create", http.MethodPost, "/v1/tasks", employee, taskBody, http.StatusForbidden},
		{"employee cannot list all", http.MethodGet, "/v1/tasks", employee, "", http.StatusForbidden},
		{"employer summary", http.MethodGet, "/v1/tasks/task-summary", employer, "", http.StatusOK},
		{"employee my tasks", http.MethodGet, "/v1/tasks/my-tasks", employee, "", http.StatusOK},
		{"employer has no my tasks", http.MethodGet, "/v1/tasks/my-tasks", employer, "", http.StatusForbidden},
		{"employee updates", http.MethodPut, "/v1/tasks/t-1", employee, `{"status":"Completed"}`, http.StatusOK},
		{"employer cannot update", http.MethodPut, "/v1/tasks/t-1", employer, `{"status":"Completed"}`, http.StatusForbidden},
		{"update missing task", http.MethodPut, "/v1/tasks/missing", employee, `{"status":"Completed"}`, http.StatusNotFound},
		{"employer deletes", http.MethodDelete, "/v1/tasks/t-1", employer, "", http.StatusNoContent},
		{"employee cannot delete", http.MethodDelete, "/v1/tasks/t-1", employee, "", http.StatusForbidden},
		{"no token", http.MethodGet, "/v1/tasks", "", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/v1/tasks", "garbage", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(e, tc.method, tc.path, tc.token, tc.body)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRouter_ExpiredAndForgedTokensAreIndistinguishable(t *testing.T) {
	e, tokens := newTestRouter(t)
	expired, _ := tokens.Issue("erin", -time.Second)
	other, _ := auth.NewTokenService("another-secret", "HS256")
	forged, _ := other.Issue("erin", time.Hour)

	a := do(e, http.MethodGet, "/v1/tasks", expired, "")
	b := do(e, http.MethodGet, "/v1/tasks", forged, "")

	if a.Code != http.StatusUnauthorized || b.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401/401, got %d/%d", a.Code, b.Code)
	}
	if a.Body.String() != b.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", a.Body.String(), b.Body.String())
	}
}

func TestRouter_RegisterDuplicate(t *testing.T) {
	e, _ := newTestRouter(t)

	rec := do(e, http.MethodPost, "/v1/users", "", `{"username":"taken","password":"secret1","role":"Employee"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "taken") {
		t.Fatalf("response must not echo the username: %s", rec.Body.String())
	}
}

func TestRouter_Health(t *testing.T) {
	e, _ := newTestRouter(t)

	if rec := do(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", rec.Code)
	}
}

// newServiceRouter wires the real UserService over an in-memory store.
func newServiceRouter(t *testing.T) *echo.Echo {
	t.Helper()
	tokens, err := auth.NewTokenService("router-secret", "HS256")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	users := memUsers{}
	return NewRouter(Dependencies{
		Log:           zerolog.Nop(),
		Authenticator: auth.NewTokenAuthenticator(tokens, users, zerolog.Nop()),
		Users:         service.NewUserService(users, tokens, time.Hour, zerolog.Nop()),
		Tasks:         fakeTasks{},
		Readiness:     map[string]handler.Check{},
		Registry:      prometheus.NewRegistry(),
	})
}

func TestRouter_RegisterShortPasswordThenLogin(t *testing.T) {
	e := newServiceRouter(t)

	rec := do(e, http.MethodPost, "/v1/users", "", `{"username":"alice","password":"pw","role":"Employee"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = do(e, http.MethodPost, "/v1/users/login", "", `{"username":"alice","password":"pw"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tok); err != nil || tok.AccessToken == "" {
		t.Fatalf("expected an access token, got %s", rec.Body.String())
	}

	if rec = do(e, http.MethodGet, "/v1/tasks/my-tasks", tok.AccessToken, ""); rec.Code != http.StatusOK {
		t.Fatalf("my-tasks: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RegisterOverlongPasswordIsValidationError(t *testing.T) {
	e := newServiceRouter(t)

	// 72 runes of a 2-byte character pass the tag but exceed bcrypt's 72 bytes.
	body := fmt.Sprintf(`{"username":"bob","password":%q,"role":"Employee"}`, strings.Repeat("é", 72))
	rec := do(e, http.MethodPost, "/v1/users", "", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	body = fmt.Sprintf(`{"username":"bob","password":%q,"role":"Employee"}`, strings.Repeat("p", 73))
	if rec = do(e, http.MethodPost, "/v1/users", "", body); rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
}
