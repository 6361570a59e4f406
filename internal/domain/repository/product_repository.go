package repository

import (
	"context"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// ProductRepository define el puerto de lectura del catálogo (DIP).
// GetByID y GetVariant devuelven (nil, nil) si no existe.
type ProductRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetVariant(ctx context.Context, id string) (*entity.Variant, error)
}
