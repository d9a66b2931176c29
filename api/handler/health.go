package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/users/api/transport"
	"github.com/fastygo/users/internal/infrastructure/monitor"
	"github.com/fastygo/users/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
	driver  string
}

func NewHealthHandler(mon *monitor.Monitor, driver string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		driver:      driver,
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.Status()
	payload := map[string]interface{}{
		"timestamp":  time.Now().UTC(),
		"store":      h.driver,
		"services":   status.Services,
		"last_check": status.LastCheck,
	}

	if status.Healthy {
		h.respondSuccess(ctx, http.StatusOK, payload)
		return
	}
	h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "dependencies unhealthy", payload))
}
