package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// Rules reglas de negocio configurables del cálculo del carrito.
type Rules struct {
	TaxRate               decimal.Decimal // 0.18 = 18%
	FreeShippingThreshold decimal.Decimal
}

// DefaultRules IGV 18% y envío gratis desde 150.
func DefaultRules() Rules {
	return Rules{
		TaxRate:               decimal.RequireFromString("0.18"),
		FreeShippingThreshold: decimal.NewFromInt(150),
	}
}

// Engine calcula el resumen del carrito. Sin estado: seguro para uso concurrente.
type Engine struct {
	rules Rules
}

// NewEngine construye el motor con las reglas dadas.
func NewEngine(rules Rules) *Engine {
	return &Engine{rules: rules}
}

// Rules devuelve las reglas activas.
func (e *Engine) Rules() Rules { return e.rules }

// Recompute deriva el resumen completo a partir de los ítems y el cupón aplicado.
// Es puro y determinista: mismas entradas, mismo resultado. Los montos se redondean a
// 2 decimales solo al final; la acumulación interna no se redondea.
func (e *Engine) Recompute(items []entity.CartLineItem, coupon *entity.Coupon, now time.Time) entity.CartSummary {
	subtotal := decimal.Zero
	promotion := decimal.Zero
	weight := decimal.Zero
	count := 0
	discounts := make([]entity.DiscountLine, 0, len(items)+1)

	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.EffectivePrice().Mul(qty))
		weight = weight.Add(it.WeightPerUnit.Mul(qty))
		count += it.Quantity

		if it.OfferPrice == nil || !it.OfferPrice.LessThan(it.UnitPrice) {
			continue
		}
		saving := it.UnitPrice.Sub(*it.OfferPrice).Mul(qty)
		promotion = promotion.Add(saving)
		pct := decimal.Zero
		if it.UnitPrice.IsPositive() {
			pct = it.UnitPrice.Sub(*it.OfferPrice).Div(it.UnitPrice).Mul(hundred)
		}
		discounts = append(discounts, entity.DiscountLine{
			Source:      entity.DiscountPromotion,
			ItemID:      it.ItemID,
			Description: fmt.Sprintf("Oferta %s", it.Name),
			Amount:      saving.Round(2),
			Percentage:  pct.Round(2),
		})
	}

	couponDiscount := decimal.Zero
	warning := ""
	if coupon != nil {
		amount, err := EvaluateCoupon(subtotal, *coupon, now)
		switch {
		case err != nil:
			warning = couponWarning(err)
		case amount.IsPositive():
			couponDiscount = amount
			discounts = append(discounts, entity.DiscountLine{
				Source:      entity.DiscountCoupon,
				CouponCode:  coupon.Code,
				Description: fmt.Sprintf("Cupón %s", coupon.Code),
				Amount:      amount.Round(2),
				Percentage:  couponPercentage(*coupon, amount, subtotal).Round(2),
			})
		}
	}

	taxBase := subtotal.Sub(couponDiscount)
	if taxBase.IsNegative() {
		taxBase = decimal.Zero
	}
	tax := taxBase.Mul(e.rules.TaxRate)
	shipping := decimal.Zero
	grand := subtotal.Sub(couponDiscount).Add(tax).Add(shipping)

	return entity.CartSummary{
		ItemCount:            count,
		Subtotal:             subtotal.Round(2),
		PromotionSavings:     promotion.Round(2),
		DiscountTotal:        couponDiscount.Round(2),
		Discounts:            discounts,
		TaxBase:              taxBase.Round(2),
		Tax:                  tax.Round(2),
		ShippingCost:         shipping,
		FreeShippingEligible: subtotal.GreaterThanOrEqual(e.rules.FreeShippingThreshold),
		GrandTotal:           grand.Round(2),
		TotalWeight:          weight,
		CouponWarning:        warning,
	}
}

func couponPercentage(c entity.Coupon, amount, subtotal decimal.Decimal) decimal.Decimal {
	if c.Kind == entity.CouponPercentage && amount.Equal(subtotal.Mul(c.Value).Div(hundred)) {
		return c.Value
	}
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	return amount.Div(subtotal).Mul(hundred)
}

func couponWarning(err error) string {
	var ce *domain.CouponError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return err.Error()
}
