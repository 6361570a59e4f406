package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-api/internal/infrastructure/memory"
)

func TestWriteSQL(t *testing.T) {
	cat, err := memory.ReadCatalog(strings.NewReader(`{
	  "products": [{"id": "p1", "sku": "POL-001", "name": "Polo d'Oro", "active": true, "stock": "3", "price": "10", "weight": "0.2",
	    "variants": [{"id": "p1-m", "sku": "POL-001-M", "name": "M", "active": true, "stock": "1", "price": "0", "weight": "0"}]}],
	  "coupons": [{"code": "diez", "kind": "porcentaje", "value": "10", "starts_at": "2026-01-01T00:00:00Z", "active": true}]
	}`))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, writeSQL(&b, cat))
	sql := b.String()

	assert.Contains(t, sql, "'Polo d''Oro'")
	assert.Contains(t, sql, "INSERT INTO product_variants")
	assert.Contains(t, sql, "'DIEZ', 'porcentaje', 10, '2026-01-01T00:00:00Z', NULL, NULL, NULL, true")
}
