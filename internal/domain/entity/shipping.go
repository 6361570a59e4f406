package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Destination región de entrega (departamento, provincia, distrito).
type Destination struct {
	Department string `json:"department"`
	Province   string `json:"province"`
	District   string `json:"district"`
}

// Normalize devuelve la región sin espacios y en mayúsculas.
func (d Destination) Normalize() Destination {
	return Destination{
		Department: upperText(d.Department),
		Province:   upperText(d.Province),
		District:   upperText(d.District),
	}
}

// ShippingOption una opción de envío cotizada.
type ShippingOption struct {
	Code                  string          `json:"code"`
	Name                  string          `json:"name"`
	Zone                  string          `json:"zone"`
	Cost                  decimal.Decimal `json:"cost"`
	BaseCost              decimal.Decimal `json:"base_cost"`
	EstimatedDays         int             `json:"estimated_days"`
	Eligible              bool            `json:"eligible"`
	IneligibleReason      string          `json:"ineligible_reason,omitempty"`
	FreeShipping          bool            `json:"free_shipping"`
	AmountForFreeShipping decimal.Decimal `json:"amount_for_free_shipping"`
}

// ShippingSelection opción elegida por el cliente para el carrito.
type ShippingSelection struct {
	Code          string          `json:"code"`
	Destination   Destination     `json:"destination"`
	Cost          decimal.Decimal `json:"cost"`
	EstimatedDays int             `json:"estimated_days"`
	SelectedAt    time.Time       `json:"selected_at"`
}
