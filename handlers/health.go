package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"checkout-form-api/models"
	"checkout-form-api/utils"
)

// Pinger is anything whose connectivity the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	startTime time.Time
	checks    map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{startTime: time.Now(), checks: checks}
}

type healthStatus struct {
	Status     string            `json:"status"`
	Time       string            `json:"time"`
	Components map[string]string `json:"components"`
	Uptime     string            `json:"uptime"`
	GoVersion  string            `json:"go_version"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	health := healthStatus{
		Status:     "ok",
		Time:       time.Now().Format(time.RFC3339),
		Components: make(map[string]string, len(h.checks)),
		Uptime:     fmt.Sprintf("%v", time.Since(h.startTime).Round(time.Second)),
		GoVersion:  runtime.Version(),
	}

	for name, check := range h.checks {
		checkCtx, checkCancel := context.WithTimeout(ctx, 500*time.Millisecond)
		err := check.Ping(checkCtx)
		checkCancel()

		if err != nil {
			health.Status = "degraded"
			health.Components[name] = "error"
			continue
		}
		health.Components[name] = "connected"
	}

	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	utils.SendResponse(w, status, models.APIResponse{
		Status:  health.Status,
		Message: "health check",
		Data:    health,
	})
}
