package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// StockTransition resultado de aplicar un movimiento sobre el stock actual.
type StockTransition struct {
	NewStock       decimal.Decimal
	SignedQuantity decimal.Decimal
}

// ComputeTransition calcula el nuevo stock y la cantidad firmada del movimiento (servicio de dominio puro).
//
//	entrada, liberacion: stock + cantidad   (+cantidad)
//	salida, reserva:     stock - cantidad   (-cantidad)
//	ajuste:              cantidad           (cantidad - stock)
//
// En ajuste la cantidad es el stock final absoluto, no un delta.
func ComputeTransition(current, requested decimal.Decimal, kind entity.MovementKind) (StockTransition, error) {
	if !kind.Valid() {
		return StockTransition{}, domain.ErrInvalidInput
	}

	if kind == entity.MovementAdjustment {
		if requested.IsNegative() {
			return StockTransition{}, domain.ErrInvalidQuantity
		}
		return StockTransition{
			NewStock:       requested,
			SignedQuantity: requested.Sub(current),
		}, nil
	}

	if !requested.IsPositive() {
		return StockTransition{}, domain.ErrInvalidQuantity
	}

	var signed decimal.Decimal
	switch kind {
	case entity.MovementInflow, entity.MovementRelease:
		signed = requested
	case entity.MovementOutflow, entity.MovementReserve:
		signed = requested.Neg()
	}

	newStock := current.Add(signed)
	if newStock.IsNegative() {
		return StockTransition{}, domain.ErrInsufficientStock
	}
	return StockTransition{NewStock: newStock, SignedQuantity: signed}, nil
}
