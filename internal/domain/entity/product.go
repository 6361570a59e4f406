package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto del catálogo. Stock solo lo modifica el ledger de movimientos.
type Product struct {
	ID         string
	SKU        string
	Name       string
	Active     bool
	Stock      decimal.Decimal
	Price      decimal.Decimal  // precio de lista
	OfferPrice *decimal.Decimal // precio promocional, nil si no hay oferta
	Weight     decimal.Decimal  // kg por unidad
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Variant variante de un producto (talla, color...). Siempre referencia exactamente un producto.
// Price/OfferPrice/Weight en cero o nil heredan del producto padre.
type Variant struct {
	ID         string
	ProductID  string
	SKU        string
	Name       string
	Active     bool
	Stock      decimal.Decimal
	Price      decimal.Decimal
	OfferPrice *decimal.Decimal
	Weight     decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
