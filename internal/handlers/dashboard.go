package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/qrcs/qrcs/internal/services"
	"github.com/qrcs/qrcs/pkg/response"
)

// DashboardHandler exposes the aggregate statistics endpoints.
type DashboardHandler struct {
	stats *services.StatsService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(db *gorm.DB) (*DashboardHandler, error) {
	stats, err := services.NewStatsService(db)
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{stats: stats}, nil
}

// Stats returns the dashboard snapshot scoped to the caller.
func (h *DashboardHandler) Stats(c *gin.Context) {
	snapshot, err := h.stats.Snapshot(requestContext(c), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, snapshot)
}

// Trend returns the day-bucketed incident creation counts.
func (h *DashboardHandler) Trend(c *gin.Context) {
	points, err := h.stats.Trend(requestContext(c), currentUserID(c), parseIntQuery(c, "days", 30))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, points)
}
