package handlers

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"internmatch/profile-builder/internal/models"
	"internmatch/profile-builder/internal/services"
)

type errorResponse struct {
	Error        string              `json:"error"`
	Code         int                 `json:"code"`
	Step         int                 `json:"step,omitempty"`
	Errors       []models.FieldError `json:"errors,omitempty"`
	FirstInvalid string              `json:"first_invalid,omitempty"`
}

var statusBySentinel = []struct {
	err    error
	status int
}{
	{services.ErrSessionNotFound, fiber.StatusNotFound},
	{services.ErrProfileNotFound, fiber.StatusNotFound},
	{services.ErrItemNotFound, fiber.StatusNotFound},
	{services.ErrSessionClosed, fiber.StatusConflict},
	{services.ErrNotLastStep, fiber.StatusConflict},
	{services.ErrUploadNotAllowed, fiber.StatusConflict},
	{services.ErrUnknownField, fiber.StatusBadRequest},
	{services.ErrUnknownCollection, fiber.StatusBadRequest},
	{services.ErrInvalidOption, fiber.StatusBadRequest},
	{services.ErrInvalidFileType, fiber.StatusBadRequest},
	{services.ErrFileTooLarge, fiber.StatusRequestEntityTooLarge},
	{services.ErrResumeParse, fiber.StatusUnprocessableEntity},
	{services.ErrInvalidDocument, fiber.StatusUnprocessableEntity},
}

// NewErrorHandler maps service errors to status codes and a JSON body.
// Unexpected errors are logged and reported without detail.
func NewErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *fiber.Ctx, err error) error {
		resp := errorResponse{Error: err.Error(), Code: fiber.StatusInternalServerError}

		var verr *services.ValidationError
		var ferr *fiber.Error
		var vErrs validator.ValidationErrors
		switch {
		case errors.As(err, &verr):
			resp.Code = fiber.StatusUnprocessableEntity
			resp.Step = verr.Step
			resp.Errors = verr.Errors
			resp.FirstInvalid = verr.FirstInvalid()
		case errors.As(err, &ferr):
			resp.Code = ferr.Code
		case errors.As(err, &vErrs):
			resp.Code = fiber.StatusBadRequest
		default:
			for _, s := range statusBySentinel {
				if errors.Is(err, s.err) {
					resp.Code = s.status
					break
				}
			}
		}

		if resp.Code == fiber.StatusInternalServerError {
			logger.Error("request failed",
				slog.String("method", c.Method()),
				slog.String("path", c.Path()),
				slog.Any("error", err),
			)
			resp.Error = "internal server error"
		}

		return c.Status(resp.Code).JSON(resp)
	}
}
