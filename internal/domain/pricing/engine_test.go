package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/pricing"
)

func lineItem(id, unit string, offer *decimal.Decimal, qty int, weight string) entity.CartLineItem {
	it := entity.CartLineItem{
		ItemID:        id,
		ProductID:     id,
		Name:          "Producto " + id,
		UnitPrice:     dec(unit),
		OfferPrice:    offer,
		Quantity:      qty,
		WeightPerUnit: dec(weight),
	}
	it.RecomputeSubtotal()
	return it
}

func TestRecompute_OfertaEsInformativa(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	items := []entity.CartLineItem{lineItem("p1", "100", ptr(dec("80")), 2, "0.5")}

	s := engine.Recompute(items, nil, testNow)

	assert.Equal(t, 2, s.ItemCount)
	assert.True(t, s.Subtotal.Equal(dec("160")), "subtotal: %s", s.Subtotal)
	assert.True(t, s.PromotionSavings.Equal(dec("40")))
	require.Len(t, s.Discounts, 1)
	assert.Equal(t, entity.DiscountPromotion, s.Discounts[0].Source)
	assert.True(t, s.Discounts[0].Amount.Equal(dec("40")))
	assert.True(t, s.Discounts[0].Percentage.Equal(dec("20")))
	assert.True(t, s.DiscountTotal.IsZero())
	assert.True(t, s.TaxBase.Equal(dec("160")), "la oferta ya está en el subtotal")
	assert.True(t, s.Tax.Equal(dec("28.8")))
	assert.True(t, s.GrandTotal.Equal(dec("188.8")))
	assert.True(t, s.FreeShippingEligible)
	assert.True(t, s.TotalWeight.Equal(dec("1")))
}

func TestRecompute_CarritoVacio(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	s := engine.Recompute(nil, nil, testNow)

	assert.Equal(t, 0, s.ItemCount)
	assert.True(t, s.Subtotal.IsZero())
	assert.True(t, s.GrandTotal.IsZero())
	assert.False(t, s.FreeShippingEligible)
	assert.Empty(t, s.Discounts)
}

func TestRecompute_Idempotente(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	items := []entity.CartLineItem{
		lineItem("a", "19.99", nil, 3, "0.2"),
		lineItem("b", "45.50", ptr(dec("39.90")), 1, "1.25"),
	}
	c := activeCoupon(entity.CouponPercentage, "10")

	first := engine.Recompute(items, &c, testNow)
	second := engine.Recompute(items, &c, testNow)
	assert.Equal(t, first, second)
}

func TestRecompute_CuponNuncaAumentaTotal(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	items := []entity.CartLineItem{
		lineItem("a", "33.33", nil, 3, "0.1"),
		lineItem("b", "120", ptr(dec("99.99")), 2, "2"),
	}
	base := engine.Recompute(items, nil, testNow)

	coupons := []entity.Coupon{
		activeCoupon(entity.CouponPercentage, "25"),
		activeCoupon(entity.CouponFixed, "15"),
		activeCoupon(entity.CouponFixed, "10000"),
		activeCoupon(entity.CouponFreeShipping, "0"),
	}
	for _, c := range coupons {
		with := engine.Recompute(items, &c, testNow)
		assert.True(t, with.GrandTotal.LessThanOrEqual(base.GrandTotal),
			"%s: %s > %s", c.Kind, with.GrandTotal, base.GrandTotal)
		assert.False(t, with.TaxBase.IsNegative())
	}
}

func TestRecompute_CuponPorcentaje(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	items := []entity.CartLineItem{lineItem("a", "200", nil, 1, "1")}
	c := activeCoupon(entity.CouponPercentage, "10")

	s := engine.Recompute(items, &c, testNow)

	assert.True(t, s.DiscountTotal.Equal(dec("20")))
	require.Len(t, s.Discounts, 1)
	assert.Equal(t, entity.DiscountCoupon, s.Discounts[0].Source)
	assert.Equal(t, "PROMO", s.Discounts[0].CouponCode)
	assert.True(t, s.Discounts[0].Percentage.Equal(dec("10")))
	assert.True(t, s.TaxBase.Equal(dec("180")))
	assert.True(t, s.Tax.Equal(dec("32.4")))
	assert.True(t, s.GrandTotal.Equal(dec("212.4")))
}

func TestRecompute_CuponInvalidoNoDescuenta(t *testing.T) {
	engine := pricing.NewEngine(pricing.DefaultRules())
	items := []entity.CartLineItem{lineItem("a", "40", nil, 1, "1")}
	c := activeCoupon(entity.CouponFixed, "10")
	c.MinimumAmount = ptr(dec("50"))

	s := engine.Recompute(items, &c, testNow)

	assert.True(t, s.DiscountTotal.IsZero())
	assert.Equal(t, domain.CouponReasonBelowMinimum, s.CouponWarning)
	assert.Empty(t, s.Discounts)
}

func TestRecompute_RedondeoSoloAlFinal(t *testing.T) {
	rules := pricing.DefaultRules()
	engine := pricing.NewEngine(rules)
	// 3 x 0.335 = 1.005 ; IGV sobre el valor sin redondear = 0.1809
	items := []entity.CartLineItem{lineItem("a", "0.335", nil, 3, "0")}

	s := engine.Recompute(items, nil, testNow)

	assert.True(t, s.Subtotal.Equal(dec("1.01")), "subtotal: %s", s.Subtotal)
	assert.True(t, s.Tax.Equal(dec("0.18")), "igv: %s", s.Tax)
	assert.True(t, s.GrandTotal.Equal(dec("1.19")), "total: %s", s.GrandTotal)
}

func TestRecompute_UmbralEnvioGratisConfigurable(t *testing.T) {
	engine := pricing.NewEngine(pricing.Rules{TaxRate: dec("0"), FreeShippingThreshold: dec("50")})
	items := []entity.CartLineItem{lineItem("a", "25", nil, 2, "0")}

	s := engine.Recompute(items, nil, testNow)

	assert.True(t, s.FreeShippingEligible)
	assert.True(t, s.Tax.IsZero())
}
