package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// MovementFilter criterios de consulta del ledger. Campos vacíos no filtran.
type MovementFilter struct {
	ProductID string
	VariantID string
	ActorID   string
	Reference string
	Kind      entity.MovementKind // 0 = todos
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}

// StockMovementRepository define el puerto de persistencia del ledger (solo inserción y lectura).
type StockMovementRepository interface {
	Create(ctx context.Context, entry *entity.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error)
	List(ctx context.Context, filter MovementFilter) ([]*entity.LedgerEntry, error)
}
