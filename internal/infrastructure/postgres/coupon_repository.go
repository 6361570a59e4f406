package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

var _ repository.CouponRepository = (*CouponRepo)(nil)

// CouponRepo consulta de cupones sobre PostgreSQL.
type CouponRepo struct {
	q Querier
}

// NewCouponRepository construye el adaptador.
func NewCouponRepository(q Querier) *CouponRepo {
	return &CouponRepo{q: q}
}

// FindActiveByCode busca por código normalizado con active = true. La vigencia la valida el dominio.
func (r *CouponRepo) FindActiveByCode(ctx context.Context, code string, _ time.Time) (*entity.Coupon, error) {
	query := `
		SELECT code, kind, value, starts_at, ends_at, minimum_amount, maximum_discount, active
		FROM coupons WHERE code = $1 AND active`
	var (
		c      entity.Coupon
		kind   string
		endsAt *time.Time
	)
	err := r.q.QueryRow(ctx, query, entity.NormalizeCouponCode(code)).Scan(
		&c.Code, &kind, &c.Value, &c.StartsAt, &endsAt, &c.MinimumAmount, &c.MaximumDiscount, &c.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find coupon: %w", err)
	}
	if c.Kind, err = entity.ParseCouponKind(kind); err != nil {
		return nil, err
	}
	if endsAt != nil {
		c.EndsAt = *endsAt
	}
	return &c, nil
}
