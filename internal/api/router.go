package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/taskboard/tasktracker/docs"
	"github.com/taskboard/tasktracker/internal/api/handler"
	"github.com/taskboard/tasktracker/internal/api/middleware"
	"github.com/taskboard/tasktracker/internal/core/domain"
	"github.com/taskboard/tasktracker/internal/core/ports"
)

const metricsSubsystem = "tasktracker"

// Dependencies groups everything the router needs to serve requests.
type Dependencies struct {
	Log           zerolog.Logger
	Authenticator ports.Authenticator
	Users         ports.UserService
	Tasks         ports.TaskService
	Readiness     map[string]handler.Check

	// AllowAllOrigins enables permissive CORS for local development.
	AllowAllOrigins bool
	// Registry receives the HTTP request metrics. Nil means the default
	// Prometheus registry.
	Registry        *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  metricsSubsystem,
		Registerer: registerer(deps.Registry),
	}))
	if deps.AllowAllOrigins {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, "Idempotency-Key"},
		}))
	}

	// --- Handlers ---
	userHandler := handler.NewUserHandler(deps.Users)
	taskHandler := handler.NewTaskHandler(deps.Tasks)

	employerOnly := middleware.RequireRoles(deps.Authenticator, domain.RoleEmployer)
	employeeOnly := middleware.RequireRoles(deps.Authenticator, domain.RoleEmployee)

	v1 := e.Group("/v1")

	// --- User routes (public) ---
	users := v1.Group("/users")
	users.POST("", userHandler.Register)
	users.POST("/login", userHandler.Login)

	// --- Task routes ---
	tasks := v1.Group("/tasks")
	tasks.POST("", taskHandler.Create, employerOnly)
	tasks.GET("", taskHandler.List, employerOnly)
	tasks.GET("/task-summary", taskHandler.Summary, employerOnly)
	tasks.DELETE("/:task_id", taskHandler.Delete, employerOnly)
	tasks.GET("/my-tasks", taskHandler.MyTasks, employeeOnly)
	tasks.PUT("/:task_id", taskHandler.UpdateStatus, employeeOnly)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Readiness, deps.Log).Readiness)

	// --- Ops ---
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: gatherer(deps.Registry),
	}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return prometheus.DefaultRegisterer
	}
	return reg
}

// gatherer exposes reg together with the default registry, which holds the
// application counters.
func gatherer(reg *prometheus.Registry) prometheus.Gatherer {
	if reg == nil {
		return prometheus.DefaultGatherer
	}
	return prometheus.Gatherers{reg, prometheus.DefaultGatherer}
}
