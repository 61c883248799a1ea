package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/trustchain/internal/dto"
	"github.com/ahmetcoskunkizilkaya/trustchain/internal/services"
	"github.com/gofiber/fiber/v2"
)

// respondError maps service errors to HTTP statuses. Anything unknown is
// logged and answered with a generic 500 using fallback as the message.
func respondError(c *fiber.Ctx, err error, action, fallback string) error {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Validation Error", Details: verr.Fields,
		})
	case errors.Is(err, services.ErrDuplicateTxID):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
			Error: true, Message: "Report with this transaction ID already exists",
		})
	case errors.Is(err, services.ErrReportNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Report not found",
		})
	}

	slog.Error(fallback,
		"request_id", requestID(c),
		"action", action,
		"method", c.Method(),
		"path", c.Path(),
		"error", err.Error(),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Error: true, Message: fallback,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error: true, Message: message,
	})
}

// bodyError answers a BodyParser failure, naming the field when the decoder
// knows it.
func bodyError(c *fiber.Ctx, err error) error {
	var ferr *dto.FieldDecodeError
	if errors.As(err, &ferr) {
		return validationFailed(c, ferr.Field, ferr.Message, ferr.Value)
	}
	var terr *json.UnmarshalTypeError
	if errors.As(err, &terr) && terr.Field != "" {
		return validationFailed(c, terr.Field, "Invalid value type", terr.Value)
	}
	return badRequest(c, "Invalid request body")
}

func validationFailed(c *fiber.Ctx, field, message string, value interface{}) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Error:   true,
		Message: "Validation Error",
		Details: []dto.FieldError{{Field: field, Message: message, Value: value}},
	})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
