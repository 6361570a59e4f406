package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

var _ repository.StockRepository = (*StockRepo)(nil)

// StockRepo stock de productos y variantes sobre PostgreSQL. Debe usarse con una tx.
type StockRepo struct {
	q Querier
}

// NewStockRepository construye el adaptador de stock.
func NewStockRepository(q Querier) *StockRepo {
	return &StockRepo{q: q}
}

func stockTable(t entity.StockTarget) (table, id string) {
	if t.IsVariant() {
		return "product_variants", t.VariantID
	}
	return "products", t.ProductID
}

// GetForUpdate lee el stock y bloquea la fila hasta el fin de la transacción (SELECT FOR UPDATE).
func (r *StockRepo) GetForUpdate(ctx context.Context, target entity.StockTarget) (decimal.Decimal, error) {
	table, id := stockTable(target)
	query := fmt.Sprintf(`SELECT stock FROM %s WHERE id = $1 FOR UPDATE`, table)
	var stock decimal.Decimal
	if err := r.q.QueryRow(ctx, query, id).Scan(&stock); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, domain.ErrNotFound
		}
		return decimal.Zero, fmt.Errorf("get stock for update: %w", mapLockError(err))
	}
	return stock, nil
}

// CompareAndSetStock actualiza el stock solo si sigue valiendo expectedBefore.
func (r *StockRepo) CompareAndSetStock(ctx context.Context, target entity.StockTarget, expectedBefore, newValue decimal.Decimal) error {
	table, id := stockTable(target)
	query := fmt.Sprintf(`UPDATE %s SET stock = $1, updated_at = now() WHERE id = $2 AND stock = $3`, table)
	tag, err := r.q.Exec(ctx, query, newValue, id, expectedBefore)
	if err != nil {
		return fmt.Errorf("update stock: %w", mapLockError(err))
	}
	if tag.RowsAffected() != 1 {
		return domain.ErrConflict
	}
	return nil
}
