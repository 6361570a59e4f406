package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
// kind: entrada | salida | ajuste | reserva | liberacion.
type RegisterMovementRequest struct {
	ProductID string          `json:"product_id"`
	VariantID string          `json:"variant_id,omitempty"`
	Kind      string          `json:"kind"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason"`
	Reference string          `json:"reference,omitempty"`
}

// LedgerEntryResponse representación pública de un movimiento aceptado.
type LedgerEntryResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	VariantID         string          `json:"variant_id,omitempty"`
	Kind              string          `json:"kind"`
	RequestedQuantity decimal.Decimal `json:"requested_quantity"`
	SignedQuantity    decimal.Decimal `json:"signed_quantity"`
	StockBefore       decimal.Decimal `json:"stock_before"`
	StockAfter        decimal.Decimal `json:"stock_after"`
	Reason            string          `json:"reason"`
	Reference         string          `json:"reference,omitempty"`
	ActorID           string          `json:"actor_id"`
	CreatedAt         time.Time       `json:"created_at"`
}

// LedgerPageResponse página de movimientos.
type LedgerPageResponse struct {
	Items []LedgerEntryResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}

// NewLedgerEntryResponse mapea la entidad al DTO.
func NewLedgerEntryResponse(e *entity.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:                e.ID,
		ProductID:         e.Target.ProductID,
		VariantID:         e.Target.VariantID,
		Kind:              e.Kind.String(),
		RequestedQuantity: e.RequestedQuantity,
		SignedQuantity:    e.SignedQuantity,
		StockBefore:       e.StockBefore,
		StockAfter:        e.StockAfter,
		Reason:            e.Reason,
		Reference:         e.Reference,
		ActorID:           e.ActorID,
		CreatedAt:         e.CreatedAt,
	}
}

// NewLedgerEntryList mapea una lista de entradas.
func NewLedgerEntryList(entries []*entity.LedgerEntry) []LedgerEntryResponse {
	out := make([]LedgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewLedgerEntryResponse(e))
	}
	return out
}

// KindTotalsDTO totales por tipo de movimiento.
type KindTotalsDTO struct {
	Kind        string          `json:"kind"`
	Count       int             `json:"count"`
	SignedTotal decimal.Decimal `json:"signed_total"`
}

// RankedEntityDTO producto o actor con más movimientos.
type RankedEntityDTO struct {
	ID          string          `json:"id"`
	Count       int             `json:"count"`
	SignedTotal decimal.Decimal `json:"signed_total"`
}

// LedgerReportResponse resumen agregado del ledger para GET /api/inventory/report.
type LedgerReportResponse struct {
	TotalEntries int               `json:"total_entries"`
	NetChange    decimal.Decimal   `json:"net_change"`
	ByKind       []KindTotalsDTO   `json:"by_kind"`
	TopProducts  []RankedEntityDTO `json:"top_products"`
	TopActors    []RankedEntityDTO `json:"top_actors"`
}
