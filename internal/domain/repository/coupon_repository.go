package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// CouponRepository puerto de consulta de cupones.
type CouponRepository interface {
	// FindActiveByCode busca por código normalizado un cupón con el flag activo; (nil, nil) si no hay.
	// La vigencia respecto de now la valida pricing.ValidateCoupon.
	FindActiveByCode(ctx context.Context, code string, now time.Time) (*entity.Coupon, error)
}
