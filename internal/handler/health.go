package handler

import (
	"net/http"
	"time"

	"github.com/Payphone-Digital/locatory/internal/constants"
	"github.com/Payphone-Digital/locatory/pkg/health"
	"github.com/Payphone-Digital/locatory/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HealthHandler struct {
	monitor *health.Monitor
}

type HealthCheckResponse struct {
	Status    health.Status                  `json:"status"`
	Version   string                         `json:"version"`
	Timestamp time.Time                      `json:"timestamp"`
	Checks    map[string]*health.CheckResult `json:"checks"`
}

func NewHealthHandler(monitor *health.Monitor) *HealthHandler {
	return &HealthHandler{monitor: monitor}
}

// HealthCheck reports the last result of every dependency check. A
// degraded service still answers 200.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if h.monitor.Overall() == health.StatusUnknown {
		h.monitor.CheckAll(c.Request.Context())
	}

	response := HealthCheckResponse{
		Status:    h.monitor.Overall(),
		Version:   constants.AppVersion,
		Timestamp: time.Now(),
		Checks:    h.monitor.GetAllResults(),
	}

	statusCode := http.StatusOK
	if response.Status == health.StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status.String()),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

// BasicHealth returns a liveness answer for load balancers.
func (h *HealthHandler) BasicHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    health.StatusHealthy,
		"version":   constants.AppVersion,
		"timestamp": time.Now(),
	})
}
