package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-api/internal/application/inventory"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

func entry(productID, actor string, kind entity.MovementKind, signed string) *entity.LedgerEntry {
	return &entity.LedgerEntry{
		Target:         entity.StockTarget{ProductID: productID},
		Kind:           kind,
		SignedQuantity: dec(signed),
		ActorID:        actor,
	}
}

func TestSummarize(t *testing.T) {
	entries := []*entity.LedgerEntry{
		entry("p1", "a", entity.MovementOutflow, "-2"),
		entry("p1", "a", entity.MovementInflow, "10"),
		entry("p2", "b", entity.MovementOutflow, "-3"),
		nil,
	}

	s := inventory.Summarize(entries)

	assert.Equal(t, 3, s.TotalEntries)
	assert.True(t, s.NetChange.Equal(dec("5")))
	require.Len(t, s.ByKind, 2)
	assert.Equal(t, entity.MovementInflow, s.ByKind[0].Kind, "orden canónico de tipos")
	assert.Equal(t, 1, s.ByKind[0].Count)
	assert.Equal(t, entity.MovementOutflow, s.ByKind[1].Kind)
	assert.Equal(t, 2, s.ByKind[1].Count)
	assert.True(t, s.ByKind[1].SignedTotal.Equal(dec("-5")))
}

func TestSummarize_Vacio(t *testing.T) {
	s := inventory.Summarize(nil)
	assert.Zero(t, s.TotalEntries)
	assert.True(t, s.NetChange.IsZero())
	assert.Empty(t, s.ByKind)
}

func TestTopEntities(t *testing.T) {
	entries := []*entity.LedgerEntry{
		entry("p2", "a", entity.MovementOutflow, "-1"),
		entry("p1", "b", entity.MovementOutflow, "-1"),
		entry("p3", "b", entity.MovementOutflow, "-1"),
		entry("p3", "b", entity.MovementInflow, "4"),
		{Target: entity.StockTarget{ProductID: "p1", VariantID: "v1"}, Kind: entity.MovementInflow, SignedQuantity: dec("2"), ActorID: "c"},
	}

	byProduct := inventory.TopEntities(entries, inventory.RankByProduct, 2)
	require.Len(t, byProduct, 2)
	assert.Equal(t, "p1", byProduct[0].ID, "empate en conteo se ordena por ID")
	assert.Equal(t, 2, byProduct[0].Count)
	assert.True(t, byProduct[0].SignedTotal.Equal(dec("1")))
	assert.Equal(t, "p3", byProduct[1].ID)

	byActor := inventory.TopEntities(entries, inventory.RankByActor, 0)
	require.Len(t, byActor, 3)
	assert.Equal(t, "b", byActor[0].ID)
	assert.Equal(t, 3, byActor[0].Count)

	assert.Empty(t, inventory.TopEntities(entries, inventory.RankBy(99), 5))
}

func TestReport(t *testing.T) {
	uc, _ := newLedger(t)
	ctx := context.Background()
	for _, in := range []inventory.MovementInputDTO{
		movement("p1", entity.MovementOutflow, "1"),
		movement("p1", entity.MovementOutflow, "2"),
		movement("p2", entity.MovementInflow, "4"),
	} {
		_, err := uc.RecordMovement(ctx, in)
		require.NoError(t, err)
	}

	r, err := uc.Report(ctx, repository.MovementFilter{}, 5)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Summary.TotalEntries)
	assert.True(t, r.Summary.NetChange.Equal(dec("1")))
	require.Len(t, r.TopProducts, 2)
	assert.Equal(t, "p1", r.TopProducts[0].ID)
	require.Len(t, r.TopActors, 1)
	assert.Equal(t, "user-1", r.TopActors[0].ID)
}
