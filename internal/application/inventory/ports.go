package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una unidad atómica (transacción de BD o lock por target),
// pasando repositorios atados a esa unidad. Si fn devuelve error no queda ningún cambio persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		catalog repository.ProductRepository,
	) error) error
}

// Clock fuente de tiempo inyectable.
type Clock func() time.Time
