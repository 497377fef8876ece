package serverutils

import (
	"errors"

	"cert-evaluator-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

// StatusForError maps error kinds to HTTP status codes.
func StatusForError(err error) int {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code
	case apperr.IsValidation(err):
		return fiber.StatusBadRequest
	case apperr.IsNotFound(err):
		return fiber.StatusNotFound
	case apperr.IsParse(err), apperr.IsCollaborator(err):
		return fiber.StatusBadGateway
	case apperr.IsExtraction(err):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers as
// the JSON envelope. Internal errors never leak their message.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := StatusForError(err)
		message := err.Error()
		if status == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return ctx.Status(status).JSON(ErrorResponse(status, message))
	}
}
