package pricing_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/pricing"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func activeCoupon(kind entity.CouponKind, value string) entity.Coupon {
	return entity.Coupon{
		Code:     "PROMO",
		Kind:     kind,
		Value:    dec(value),
		StartsAt: testNow.AddDate(0, -1, 0),
		EndsAt:   testNow.AddDate(0, 1, 0),
		Active:   true,
	}
}

func TestCouponDiscount_PorcentajeTopeMaximo(t *testing.T) {
	c := activeCoupon(entity.CouponPercentage, "50")
	c.MaximumDiscount = ptr(dec("200"))

	got, err := pricing.EvaluateCoupon(dec("1000"), c, testNow)
	require.NoError(t, err)
	assert.True(t, got.Equal(dec("200")), "descuento: %s", got)
}

func TestCouponDiscount_Porcentaje(t *testing.T) {
	got := pricing.CouponDiscount(dec("80"), activeCoupon(entity.CouponPercentage, "15"))
	assert.True(t, got.Equal(dec("12")), "descuento: %s", got)
}

func TestCouponDiscount_FijoNoSuperaSubtotal(t *testing.T) {
	got := pricing.CouponDiscount(dec("30"), activeCoupon(entity.CouponFixed, "50"))
	assert.True(t, got.Equal(dec("30")))

	c := activeCoupon(entity.CouponFixed, "50")
	c.MaximumDiscount = ptr(dec("20"))
	got = pricing.CouponDiscount(dec("300"), c)
	assert.True(t, got.Equal(dec("20")))
}

func TestCouponDiscount_EnvioGratisNoDescuenta(t *testing.T) {
	got := pricing.CouponDiscount(dec("500"), activeCoupon(entity.CouponFreeShipping, "0"))
	assert.True(t, got.IsZero())
}

func TestValidateCoupon_Motivos(t *testing.T) {
	inactive := activeCoupon(entity.CouponFixed, "10")
	inactive.Active = false

	future := activeCoupon(entity.CouponFixed, "10")
	future.StartsAt = testNow.Add(time.Hour)

	expired := activeCoupon(entity.CouponFixed, "10")
	expired.EndsAt = testNow.Add(-time.Hour)

	minimum := activeCoupon(entity.CouponFixed, "10")
	minimum.MinimumAmount = ptr(dec("100"))

	cases := map[string]struct {
		coupon entity.Coupon
		reason string
	}{
		"inactivo":    {inactive, domain.CouponReasonInactive},
		"no iniciado": {future, domain.CouponReasonNotStarted},
		"vencido":     {expired, domain.CouponReasonExpired},
		"bajo mínimo": {minimum, domain.CouponReasonBelowMinimum},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			err := pricing.ValidateCoupon(tc.coupon, dec("99.99"), testNow)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrCouponInvalid)
			var ce *domain.CouponError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tc.reason, ce.Reason)
		})
	}

	assert.NoError(t, pricing.ValidateCoupon(minimum, dec("100"), testNow), "el mínimo es inclusivo")
}
