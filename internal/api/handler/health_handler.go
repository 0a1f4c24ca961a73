package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// HealthHandler handles GET /health, the liveness probe.
// Returns 200 immediately; confirms the process is alive.
type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Check probes one dependency.
type Check func(ctx context.Context) error

// ReadinessHandler handles GET /health/ready, the readiness probe.
// Runs every registered dependency check concurrently. Failure causes are
// logged, never returned to the caller.
type ReadinessHandler struct {
	checks  map[string]Check
	timeout time.Duration
	log     zerolog.Logger
}

func NewReadinessHandler(checks map[string]Check, log zerolog.Logger) *ReadinessHandler {
	return &ReadinessHandler{checks: checks, timeout: 3 * time.Second, log: log}
}

type dependencyStatus struct {
	Status string `json:"status"`
}

type readinessResponse struct {
	Status       string                      `json:"status"`
	Dependencies map[string]dependencyStatus `json:"dependencies"`
}

// Readiness reports 200 when every dependency answers, 503 otherwise.
//
// @Summary      Readiness probe
// @Tags         health
// @Produce      json
// @Success      200  {object}  readinessResponse
// @Failure      503  {object}  readinessResponse
// @Router       /health/ready [get]
func (h *ReadinessHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	var (
		mu   sync.Mutex
		deps = make(map[string]dependencyStatus, len(h.checks))
	)

	// Workers always return nil: one failed dependency must not cancel the rest.
	g, gctx := errgroup.WithContext(ctx)
	for name, check := range h.checks {
		g.Go(func() error {
			st := dependencyStatus{Status: "ok"}
			if err := check(gctx); err != nil {
				h.log.Warn().Err(err).Str("dependency", name).Msg("readiness check failed")
				st = dependencyStatus{Status: "unhealthy"}
			}
			mu.Lock()
			deps[name] = st
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	status := "ok"
	httpStatus := http.StatusOK
	for _, d := range deps {
		if d.Status != "ok" {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(httpStatus, readinessResponse{
		Status:       status,
		Dependencies: deps,
	})
}
