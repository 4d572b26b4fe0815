package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/solar-inventario/internal/application/dto"
	"github.com/jhoicas/solar-inventario/internal/application/ordering"
)

// statusFor código HTTP de cada código de error de la taxonomía.
func statusFor(code string) int {
	switch code {
	case "", ordering.CodePriceCorrection:
		return fiber.StatusOK
	case ordering.CodeInvalidQuantity, ordering.CodeInvalidInput:
		return fiber.StatusBadRequest
	case ordering.CodeInvalidState:
		return fiber.StatusConflict
	case ordering.CodeNotFound:
		return fiber.StatusNotFound
	case ordering.CodeStorage:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError responde con dto.ErrorResponse según la clasificación de err.
func writeError(c *fiber.Ctx, err error) error {
	code := ordering.ErrorCode(err)
	return c.Status(statusFor(code)).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

// writeResult responde con el resultado de una operación de pedido.
func writeResult(c *fiber.Ctx, r ordering.Result) error {
	status := fiber.StatusOK
	if !r.OK {
		status = statusFor(r.ErrorCode)
	}
	return c.Status(status).JSON(dto.NewOrderResultResponse(r))
}
