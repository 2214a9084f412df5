package handlers

import (
	"e-nagarpalika-portal/internal/adapters/http/middleware"
	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DashboardHandler handles dashboard endpoints
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetDashboard returns application counts per status bucket
// @Summary Get dashboard
// @Description Counts per status bucket, using the same visibility rules as the application list
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=services.DashboardData}
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /dashboard [get]
func (h *DashboardHandler) GetDashboard(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	data, err := h.dashboardService.GetDashboard(c.UserContext(), workflow.Viewer(actor))
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Dashboard retrieved successfully", data)
}
