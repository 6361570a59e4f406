package entity

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DiscountSource origen de una línea de descuento del resumen.
type DiscountSource int

const (
	DiscountPromotion DiscountSource = iota + 1
	DiscountCoupon
)

func (s DiscountSource) String() string {
	switch s {
	case DiscountPromotion:
		return "promotion"
	case DiscountCoupon:
		return "coupon"
	}
	return fmt.Sprintf("DiscountSource(%d)", int(s))
}

func (s DiscountSource) MarshalText() ([]byte, error) {
	switch s {
	case DiscountPromotion, DiscountCoupon:
		return []byte(s.String()), nil
	}
	return nil, fmt.Errorf("origen de descuento inválido: %d", int(s))
}

func (s *DiscountSource) UnmarshalText(b []byte) error {
	switch string(b) {
	case "promotion":
		*s = DiscountPromotion
	case "coupon":
		*s = DiscountCoupon
	default:
		return fmt.Errorf("origen de descuento desconocido: %q", string(b))
	}
	return nil
}

// CartState estado del carrito: vacío o con ítems.
type CartState int

const (
	CartEmpty CartState = iota
	CartHasItems
)

// CartLineItem una selección de producto/variante dentro del carrito.
type CartLineItem struct {
	ItemID         string           `json:"item_id"`
	ProductID      string           `json:"product_id"`
	VariantID      string           `json:"variant_id,omitempty"`
	SKU            string           `json:"sku"`
	Name           string           `json:"name"`
	UnitPrice      decimal.Decimal  `json:"unit_price"`
	OfferPrice     *decimal.Decimal `json:"offer_price,omitempty"`
	Quantity       int              `json:"quantity"`
	WeightPerUnit  decimal.Decimal  `json:"weight_per_unit"`
	AvailableStock decimal.Decimal  `json:"available_stock"`
	LineSubtotal   decimal.Decimal  `json:"line_subtotal"`
	CreatedAt      time.Time        `json:"created_at"`
	ModifiedAt     time.Time        `json:"modified_at"`
}

// LineItemID identidad estable de la línea, derivada de producto + variante.
func LineItemID(productID, variantID string) string {
	if variantID == "" {
		return productID
	}
	return productID + ":" + variantID
}

// EffectivePrice precio de oferta si existe, si no el precio de lista.
func (i CartLineItem) EffectivePrice() decimal.Decimal {
	if i.OfferPrice != nil {
		return *i.OfferPrice
	}
	return i.UnitPrice
}

// RecomputeSubtotal recalcula LineSubtotal; debe llamarse en cada mutación.
func (i *CartLineItem) RecomputeSubtotal() {
	i.LineSubtotal = i.EffectivePrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Target devuelve el StockTarget del ítem.
func (i CartLineItem) Target() StockTarget {
	return StockTarget{ProductID: i.ProductID, VariantID: i.VariantID}
}

// DiscountLine descuento detallado (promoción por ítem o cupón).
type DiscountLine struct {
	Source      DiscountSource  `json:"source"`
	ItemID      string          `json:"item_id,omitempty"`
	CouponCode  string          `json:"coupon_code,omitempty"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Percentage  decimal.Decimal `json:"percentage"`
}

// CartSummary proyección derivada del carrito; se recalcula completa en cada mutación.
// DiscountTotal contiene solo lo que se descuenta del subtotal (cupón); las promociones ya
// están reflejadas en el subtotal vía precio de oferta y se informan en PromotionSavings.
type CartSummary struct {
	ItemCount            int             `json:"item_count"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	PromotionSavings     decimal.Decimal `json:"promotion_savings"`
	DiscountTotal        decimal.Decimal `json:"discount_total"`
	Discounts            []DiscountLine  `json:"discounts"`
	TaxBase              decimal.Decimal `json:"tax_base"`
	Tax                  decimal.Decimal `json:"tax"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	FreeShippingEligible bool            `json:"free_shipping_eligible"`
	GrandTotal           decimal.Decimal `json:"grand_total"`
	TotalWeight          decimal.Decimal `json:"total_weight"`
	CouponWarning        string          `json:"coupon_warning,omitempty"`
}

// Cart estado mutable de un carrito de sesión.
type Cart struct {
	SessionKey string             `json:"session_key"`
	OwnerID    string             `json:"owner_id,omitempty"`
	Items      []CartLineItem     `json:"items"`
	Coupon     *Coupon            `json:"coupon,omitempty"`
	Summary    CartSummary        `json:"summary"`
	Shipping   *ShippingSelection `json:"shipping,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	Dirty      bool               `json:"dirty"`
	SyncedAt   *time.Time         `json:"synced_at,omitempty"`
}

// NewCart crea un carrito vacío para la sesión.
func NewCart(sessionKey string, now time.Time) *Cart {
	return &Cart{
		SessionKey: sessionKey,
		Items:      []CartLineItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// State devuelve Empty o HasItems.
func (c *Cart) State() CartState {
	if len(c.Items) == 0 {
		return CartEmpty
	}
	return CartHasItems
}

// FindItem devuelve la posición del ítem o -1.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ItemID == itemID {
			return i
		}
	}
	return -1
}

// CheckoutTotal total del resumen más el envío seleccionado.
func (c *Cart) CheckoutTotal() decimal.Decimal {
	total := c.Summary.GrandTotal
	if c.Shipping != nil {
		total = total.Add(c.Shipping.Cost)
	}
	return total.Round(2)
}
