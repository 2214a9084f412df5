package handlers

import (
	"e-nagarpalika-portal/internal/adapters/http/middleware"
	"e-nagarpalika-portal/internal/core/services"
	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/pagination"
	"e-nagarpalika-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ApplicationHandler handles application endpoints
type ApplicationHandler struct {
	appService *services.ApplicationService
}

// NewApplicationHandler creates a new application handler
func NewApplicationHandler(appService *services.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{appService: appService}
}

// Submit files a new application
// @Summary Submit application
// @Description File a User ID / Authorization request. Sends an acknowledgement email with the ticket number.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SubmitInput true "Application form"
// @Success 201 {object} response.Response{data=services.SubmitResult}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /applications [post]
func (h *ApplicationHandler) Submit(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.SubmitInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.appService.Submit(c.UserContext(), actor, &input)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Created(c, "Application submitted successfully", result)
}

// List returns applications visible to the caller
// @Summary List applications
// @Description Requesters see their own filings; approvers see the queue for their stage.
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status bucket" Enums(pending, approved, fully-approved, partially-approved, rejected)
// @Param page query int false "Page" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response{data=pagination.Response}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /applications [get]
func (h *ApplicationHandler) List(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)
	views, total, err := h.appService.List(c.UserContext(), workflow.Viewer(actor), c.Query("status"), params)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Paginated(c, "Applications retrieved successfully", views, params, total)
}

// Get returns one application
// @Summary Get application
// @Tags Applications
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Success 200 {object} response.Response{data=services.ApplicationView}
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/{id} [get]
func (h *ApplicationHandler) Get(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	view, err := h.appService.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Application retrieved successfully", view)
}

// Transition approves or rejects an application
// @Summary Approve or reject
// @Description Approve at a level or reject with remarks. Returns 409 when another decision was committed first.
// @Tags Applications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Application ID"
// @Param body body services.TransitionInput true "Decision"
// @Success 200 {object} response.Response{data=services.ApplicationView}
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /applications/{id} [put]
func (h *ApplicationHandler) Transition(c *fiber.Ctx) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.TransitionInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	view, err := h.appService.Transition(c.UserContext(), actor, c.Params("id"), &input)
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Application updated successfully", view)
}

// Track looks up an application status without logging in
// @Summary Track application
// @Description Public lookup by ticket number or applicant email. Returns the newest match.
// @Tags Applications
// @Produce json
// @Param query query string true "Ticket number or email"
// @Success 200 {object} response.Response{data=services.ApplicationView}
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /applications/track [get]
func (h *ApplicationHandler) Track(c *fiber.Ctx) error {
	view, err := h.appService.Track(c.UserContext(), c.Query("query"))
	if err != nil {
		return workflowError(c, err)
	}

	return response.Success(c, "Application found", view)
}
