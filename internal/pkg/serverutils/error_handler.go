package serverutils

import (
	"errors"

	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/internal/repository/contract"
	"finance-qa-be/internal/service"
	"finance-qa-be/pkg/assistant"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error onto the HTTP status the API answers with.
func StatusFor(err error) int {
	var fiberErr *fiber.Error
	var reqErr *RequestValidationError

	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case errors.As(err, &reqErr),
		assistant.IsValidationError(err),
		assistant.IsConfigError(err):
		return fiber.StatusBadRequest
	case errors.Is(err, contract.ErrSessionNotFound),
		errors.Is(err, service.ErrSampleNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrTurnInProgress):
		return fiber.StatusConflict
	case assistant.IsCompletionError(err):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders every error returned by a handler in the response envelope.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		code := StatusFor(err)
		message := err.Error()

		var data interface{}
		var reqErr *RequestValidationError
		if errors.As(err, &reqErr) {
			data = reqErr.Fields
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"status": code,
				"error":  err,
			})
			if code == fiber.StatusInternalServerError {
				message = "internal server error"
			}
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message, data))
	}
}
