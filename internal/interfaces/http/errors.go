package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-api/internal/application/dto"
	"github.com/jhoicas/tienda-api/internal/domain"
)

type errorMapping struct {
	err     error
	status  int
	code    string
	message string
}

// El orden importa: el primer errors.Is que coincide gana.
var errorMappings = []errorMapping{
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK", "stock insuficiente"},
	{domain.ErrCouponAlreadyApplied, fiber.StatusConflict, "COUPON_ALREADY_APPLIED", "ya hay un cupón aplicado"},
	{domain.ErrConflict, fiber.StatusConflict, "CONFLICT", "el recurso está siendo modificado, reintente"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY", "cantidad inválida"},
	{domain.ErrOutOfRange, fiber.StatusBadRequest, "OUT_OF_RANGE", "cantidad fuera del rango permitido"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION", "datos inválidos"},
	{domain.ErrTargetInactive, fiber.StatusUnprocessableEntity, "TARGET_INACTIVE", "producto o variante inactivo"},
	{domain.ErrTargetMismatch, fiber.StatusUnprocessableEntity, "TARGET_MISMATCH", "la variante no pertenece al producto"},
	{domain.ErrItemNotFound, fiber.StatusNotFound, "ITEM_NOT_FOUND", "ítem no encontrado en el carrito"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND", "recurso no encontrado"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED", "no autorizado"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN", "acceso denegado"},
}

// writeError traduce un error de dominio a status HTTP con cuerpo dto.ErrorResponse.
func writeError(c *fiber.Ctx, err error) error {
	var couponErr *domain.CouponError
	if errors.As(err, &couponErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:    "COUPON_" + strings.ToUpper(couponErr.Reason),
			Message: couponErr.Error(),
			Coupon:  couponErr.Code,
		})
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return c.Status(m.status).JSON(dto.ErrorResponse{Code: m.code, Message: m.message})
		}
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
