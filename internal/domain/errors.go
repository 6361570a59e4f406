package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Motor de stock
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidQuantity   = errors.New("cantidad inválida")
	ErrTargetInactive    = errors.New("producto o variante no habilitado para movimientos")
	ErrTargetMismatch    = errors.New("la variante no pertenece al producto indicado")

	// Carrito
	ErrItemNotFound         = errors.New("ítem no encontrado en el carrito")
	ErrOutOfRange           = errors.New("cantidad fuera del rango permitido")
	ErrCouponInvalid        = errors.New("cupón inválido")
	ErrCouponAlreadyApplied = errors.New("ya hay un cupón aplicado al carrito")
)

// Motivos de rechazo de un cupón (CouponError.Reason).
const (
	CouponReasonNotFound     = "not_found"
	CouponReasonInactive     = "inactive"
	CouponReasonNotStarted   = "not_started"
	CouponReasonExpired      = "expired"
	CouponReasonBelowMinimum = "below_minimum"
	CouponReasonNotApplied   = "not_applied"
)

// CouponError indica por qué un cupón no puede aplicarse.
// errors.Is(err, ErrCouponInvalid) es verdadero para cualquier CouponError.
type CouponError struct {
	Code   string
	Reason string
}

func (e *CouponError) Error() string {
	return fmt.Sprintf("cupón %q inválido: %s", e.Code, e.Reason)
}

// Is permite comparar con ErrCouponInvalid.
func (e *CouponError) Is(target error) bool {
	return target == ErrCouponInvalid
}

// NewCouponError construye el error con su motivo.
func NewCouponError(code, reason string) error {
	return &CouponError{Code: code, Reason: reason}
}
