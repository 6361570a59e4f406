package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// CartStore almacén clave-valor de carritos de sesión con TTL.
// Último en escribir gana; no hay bloqueo entre peticiones.
type CartStore interface {
	// Get devuelve (nil, nil) si la sesión no tiene carrito o expiró.
	Get(ctx context.Context, sessionKey string) (*entity.Cart, error)
	Put(ctx context.Context, sessionKey string, cart *entity.Cart, ttl time.Duration) error
	Delete(ctx context.Context, sessionKey string) error
}
