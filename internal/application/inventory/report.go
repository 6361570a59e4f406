package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// KindTotals conteo y suma de cantidades con signo de un tipo de movimiento.
type KindTotals struct {
	Kind        entity.MovementKind `json:"kind"`
	Count       int                 `json:"count"`
	SignedTotal decimal.Decimal     `json:"signed_total"`
}

// Summary agregado de un conjunto de asientos.
type Summary struct {
	TotalEntries int             `json:"total_entries"`
	NetChange    decimal.Decimal `json:"net_change"`
	ByKind       []KindTotals    `json:"by_kind"`
}

// RankBy criterio de agrupación para TopEntities.
type RankBy int

const (
	RankByProduct RankBy = iota + 1
	RankByActor
)

// RankedEntity entrada del ranking por número de movimientos.
type RankedEntity struct {
	ID          string          `json:"id"`
	Count       int             `json:"count"`
	SignedTotal decimal.Decimal `json:"signed_total"`
}

// Report resumen más rankings de productos y actores.
type Report struct {
	Summary     Summary        `json:"summary"`
	TopProducts []RankedEntity `json:"top_products"`
	TopActors   []RankedEntity `json:"top_actors"`
}

// Summarize agrupa por tipo en el orden canónico de MovementKinds; omite tipos sin asientos.
func Summarize(entries []*entity.LedgerEntry) Summary {
	counts := make(map[entity.MovementKind]*KindTotals)
	s := Summary{NetChange: decimal.Zero, ByKind: []KindTotals{}}
	for _, e := range entries {
		if e == nil {
			continue
		}
		kt, ok := counts[e.Kind]
		if !ok {
			kt = &KindTotals{Kind: e.Kind, SignedTotal: decimal.Zero}
			counts[e.Kind] = kt
		}
		kt.Count++
		kt.SignedTotal = kt.SignedTotal.Add(e.SignedQuantity)
		s.TotalEntries++
		s.NetChange = s.NetChange.Add(e.SignedQuantity)
	}
	for _, k := range entity.MovementKinds() {
		if kt, ok := counts[k]; ok {
			s.ByKind = append(s.ByKind, *kt)
		}
	}
	return s
}

// TopEntities ranking por cantidad de asientos (desc), desempate por ID (asc).
// Los movimientos de variantes cuentan para su producto. limit <= 0 devuelve todo.
func TopEntities(entries []*entity.LedgerEntry, by RankBy, limit int) []RankedEntity {
	byID := make(map[string]*RankedEntity)
	for _, e := range entries {
		if e == nil {
			continue
		}
		var id string
		switch by {
		case RankByProduct:
			id = e.Target.ProductID
		case RankByActor:
			id = e.ActorID
		default:
			return []RankedEntity{}
		}
		r, ok := byID[id]
		if !ok {
			r = &RankedEntity{ID: id, SignedTotal: decimal.Zero}
			byID[id] = r
		}
		r.Count++
		r.SignedTotal = r.SignedTotal.Add(e.SignedQuantity)
	}

	ranked := make([]RankedEntity, 0, len(byID))
	for _, r := range byID {
		ranked = append(ranked, *r)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].ID < ranked[j].ID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Report consulta los asientos del filtro y arma el resumen con los top de productos y actores.
func (uc *LedgerUseCase) Report(ctx context.Context, filter repository.MovementFilter, top int) (*Report, error) {
	entries, err := uc.movRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &Report{
		Summary:     Summarize(entries),
		TopProducts: TopEntities(entries, RankByProduct, top),
		TopActors:   TopEntities(entries, RankByActor, top),
	}, nil
}
