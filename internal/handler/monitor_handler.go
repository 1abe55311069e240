package handler

import (
	"net/http"

	"crewline/internal/hub"

	"github.com/gin-gonic/gin"
)

// MonitorHandler handles monitoring API endpoints
type MonitorHandler interface {
	GetHubStats(c *gin.Context)
}

type monitorHandler struct {
	monitorService *hub.MonitorService
}

func NewMonitorHandler(monitorService *hub.MonitorService) MonitorHandler {
	return &monitorHandler{
		monitorService: monitorService,
	}
}

// GetHubStats returns current hub statistics: connections, rooms, presence.
func (h *monitorHandler) GetHubStats(c *gin.Context) {
	respondOK(c, http.StatusOK, h.monitorService.GetStats())
}
