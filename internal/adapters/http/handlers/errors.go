package handlers

import (
	"errors"

	"e-nagarpalika-portal/internal/core/workflow"
	"e-nagarpalika-portal/internal/pkg/logger"
	"e-nagarpalika-portal/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// workflowError maps a workflow error onto an HTTP response
func workflowError(c *fiber.Ctx, err error) error {
	var we *workflow.Error
	if !errors.As(err, &we) {
		logger.With("http").Error().Err(err).Str("path", c.Path()).Msg("unexpected error")
		return response.InternalServerError(c, "Internal server error")
	}

	switch we.Kind {
	case workflow.KindValidation, workflow.KindWorkflowState:
		return response.BadRequest(c, we.Message)
	case workflow.KindAuthorization:
		return response.Forbidden(c, we.Message)
	case workflow.KindNotFound:
		return response.NotFound(c, we.Message)
	case workflow.KindConcurrency:
		return response.Conflict(c, we.Message)
	}

	logger.With("http").Error().Err(err).Str("path", c.Path()).Msg("store failure")
	return response.InternalServerError(c, "Internal server error")
}
