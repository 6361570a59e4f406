package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// StockRepository define el puerto para leer/escribir el stock de un producto o variante.
// Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	// GetForUpdate lee el stock y bloquea el target hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, target entity.StockTarget) (decimal.Decimal, error)
	// CompareAndSetStock escribe newValue solo si el stock actual es expectedBefore;
	// si no coincide devuelve domain.ErrConflict.
	CompareAndSetStock(ctx context.Context, target entity.StockTarget, expectedBefore, newValue decimal.Decimal) error
}
