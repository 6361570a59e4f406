package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// AddItemRequest body para POST /api/cart/items.
type AddItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest body para PUT /api/cart/items/:itemId. quantity <= 0 elimina la línea.
type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CouponRequest body para aplicar un cupón.
type CouponRequest struct {
	Code string `json:"code"`
}

// ShippingQuoteRequest destino para cotizar envío.
type ShippingQuoteRequest struct {
	Department string `json:"department"`
	Province   string `json:"province"`
	District   string `json:"district"`
}

// Destination convierte el request a la entidad.
func (r ShippingQuoteRequest) Destination() entity.Destination {
	return entity.Destination{Department: r.Department, Province: r.Province, District: r.District}
}

// SelectShippingRequest opción elegida y destino.
type SelectShippingRequest struct {
	ShippingQuoteRequest
	Code string `json:"code"`
}

// CartResponse carrito con su resumen y el total de checkout (resumen + envío elegido).
type CartResponse struct {
	*entity.Cart
	CheckoutTotal decimal.Decimal `json:"checkout_total"`
}

// NewCartResponse envuelve el carrito.
func NewCartResponse(c *entity.Cart) CartResponse {
	return CartResponse{Cart: c, CheckoutTotal: c.CheckoutTotal()}
}

// ItemChangeDTO ajuste aplicado por la reconciliación de disponibilidad.
type ItemChangeDTO struct {
	ItemID       string          `json:"item_id"`
	PreviousQty  int             `json:"previous_quantity"`
	AdjustedQty  int             `json:"adjusted_quantity"`
	AvailableQty int             `json:"available_quantity"`
}

// ReconcileResponse resultado de POST /api/cart/reconcile.
type ReconcileResponse struct {
	Cart              CartResponse    `json:"cart"`
	ItemsChanged      []ItemChangeDTO `json:"items_changed"`
	ItemsWithoutStock []string        `json:"items_without_stock"`
}

// PendingReservationDTO stock reservado por el carrito y aún no liberado.
type PendingReservationDTO struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
}
