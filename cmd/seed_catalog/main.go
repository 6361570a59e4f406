// seed_catalog genera el script SQL que carga el catálogo inicial (productos, variantes y cupones)
// a partir del mismo JSON que usa STORE_DRIVER=memory.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.json]
// Por defecto lee catalog.example.json. Archivos exportados en ISO-8859-1 se convierten a UTF-8.
// Escribe: migrations/0002_seed_catalog.sql
package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/tienda-api/internal/infrastructure/memory"
)

func main() {
	path := "catalog.example.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer catálogo: %v\n", err)
		os.Exit(1)
	}
	var r io.Reader = bytes.NewReader(raw)
	if !utf8.Valid(raw) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cat, err := memory.ReadCatalog(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Catálogo inválido: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(findModuleRoot(), "migrations", "0002_seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, cat); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	variants := 0
	for _, p := range cat.Products {
		variants += len(p.Variants)
	}
	fmt.Printf("Generado %s: %d productos, %d variantes, %d cupones\n", outPath, len(cat.Products), variants, len(cat.Coupons))
}

// writeSQL el stock inicial se escribe directo: el ledger registra los movimientos posteriores.
func writeSQL(w io.Writer, cat *memory.CatalogFile) error {
	var b strings.Builder
	b.WriteString("-- Catálogo inicial generado por cmd/seed_catalog\n\n")

	for _, p := range cat.Products {
		fmt.Fprintf(&b, "INSERT INTO products (id, sku, name, active, stock, price, offer_price, weight)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', %t, %s, %s, %s, %s)\n",
			escapeSQL(p.ID), escapeSQL(p.SKU), escapeSQL(p.Name), p.Active,
			p.Stock.String(), p.Price.String(), sqlDecimal(p.OfferPrice), p.Weight.String())
		b.WriteString("ON CONFLICT (id) DO UPDATE SET sku = EXCLUDED.sku, name = EXCLUDED.name, active = EXCLUDED.active,\n")
		b.WriteString("  price = EXCLUDED.price, offer_price = EXCLUDED.offer_price, weight = EXCLUDED.weight, updated_at = now();\n")
		for _, v := range p.Variants {
			fmt.Fprintf(&b, "INSERT INTO product_variants (id, product_id, sku, name, active, stock, price, offer_price, weight)\n")
			fmt.Fprintf(&b, "VALUES ('%s', '%s', '%s', '%s', %t, %s, %s, %s, %s)\n",
				escapeSQL(v.ID), escapeSQL(p.ID), escapeSQL(v.SKU), escapeSQL(v.Name), v.Active,
				v.Stock.String(), v.Price.String(), sqlDecimal(v.OfferPrice), v.Weight.String())
			b.WriteString("ON CONFLICT (id) DO NOTHING;\n")
		}
		b.WriteString("\n")
	}

	for _, c := range cat.Coupons {
		fmt.Fprintf(&b, "INSERT INTO coupons (code, kind, value, starts_at, ends_at, minimum_amount, maximum_discount, active)\n")
		fmt.Fprintf(&b, "VALUES ('%s', '%s', %s, %s, %s, %s, %s, %t)\n",
			escapeSQL(c.Code), c.Kind.String(), c.Value.String(), sqlTime(c.StartsAt), sqlTime(c.EndsAt),
			sqlDecimal(c.MinimumAmount), sqlDecimal(c.MaximumDiscount), c.Active)
		b.WriteString("ON CONFLICT (code) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value, starts_at = EXCLUDED.starts_at,\n")
		b.WriteString("  ends_at = EXCLUDED.ends_at, minimum_amount = EXCLUDED.minimum_amount,\n")
		b.WriteString("  maximum_discount = EXCLUDED.maximum_discount, active = EXCLUDED.active;\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sqlDecimal(d *decimal.Decimal) string {
	if d == nil {
		return "NULL"
	}
	return d.String()
}

func sqlTime(t time.Time) string {
	if t.IsZero() {
		return "NULL"
	}
	return "'" + t.UTC().Format(time.RFC3339) + "'"
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
