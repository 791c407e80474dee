package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/bar-order-app/services"
	"github.com/yeremiapane/bar-order-app/utils"
)

type AdminController struct {
	Stats *services.StatsService
}

func NewAdminController(stats *services.StatsService) *AdminController {
	return &AdminController{Stats: stats}
}

// GetDashboardStats -> counters for the admin dashboard
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	stats, err := ac.Stats.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}
