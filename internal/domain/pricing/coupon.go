package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// ValidateCoupon verifica que el cupón esté activo, dentro de su vigencia y que el subtotal
// alcance el monto mínimo. Devuelve *domain.CouponError con el motivo.
func ValidateCoupon(c entity.Coupon, subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return domain.NewCouponError(c.Code, domain.CouponReasonInactive)
	}
	if now.Before(c.StartsAt) {
		return domain.NewCouponError(c.Code, domain.CouponReasonNotStarted)
	}
	if !c.EndsAt.IsZero() && now.After(c.EndsAt) {
		return domain.NewCouponError(c.Code, domain.CouponReasonExpired)
	}
	if c.MinimumAmount != nil && subtotal.LessThan(*c.MinimumAmount) {
		return domain.NewCouponError(c.Code, domain.CouponReasonBelowMinimum)
	}
	return nil
}

// CouponDiscount monto que descuenta el cupón sobre el subtotal (sin validar vigencia).
// Nunca supera el subtotal ni MaximumDiscount. FreeShipping descuenta 0: su beneficio va en el envío.
func CouponDiscount(subtotal decimal.Decimal, c entity.Coupon) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch c.Kind {
	case entity.CouponFixed:
		discount = c.Value
	case entity.CouponPercentage:
		discount = subtotal.Mul(c.Value).Div(hundred)
	default:
		return decimal.Zero
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	if c.MaximumDiscount != nil && discount.GreaterThan(*c.MaximumDiscount) {
		discount = *c.MaximumDiscount
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	return discount
}

// EvaluateCoupon valida el cupón y devuelve su descuento sobre el subtotal.
func EvaluateCoupon(subtotal decimal.Decimal, c entity.Coupon, now time.Time) (decimal.Decimal, error) {
	if err := ValidateCoupon(c, subtotal, now); err != nil {
		return decimal.Zero, err
	}
	return CouponDiscount(subtotal, c), nil
}
