package memory

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
)

// CatalogFile formato JSON del catálogo inicial (productos con variantes y cupones).
type CatalogFile struct {
	Products []CatalogProduct `json:"products"`
	Coupons  []entity.Coupon  `json:"coupons"`
}

// CatalogProduct producto del archivo. Las variantes heredan ProductID del padre.
type CatalogProduct struct {
	ID         string           `json:"id"`
	SKU        string           `json:"sku"`
	Name       string           `json:"name"`
	Active     bool             `json:"active"`
	Stock      decimal.Decimal  `json:"stock"`
	Price      decimal.Decimal  `json:"price"`
	OfferPrice *decimal.Decimal `json:"offer_price,omitempty"`
	Weight     decimal.Decimal  `json:"weight"`
	Variants   []CatalogVariant `json:"variants,omitempty"`
}

// CatalogVariant variante del archivo; precio y peso en cero heredan del producto.
type CatalogVariant struct {
	ID         string           `json:"id"`
	SKU        string           `json:"sku"`
	Name       string           `json:"name"`
	Active     bool             `json:"active"`
	Stock      decimal.Decimal  `json:"stock"`
	Price      decimal.Decimal  `json:"price"`
	OfferPrice *decimal.Decimal `json:"offer_price,omitempty"`
	Weight     decimal.Decimal  `json:"weight"`
}

// ReadCatalog decodifica y valida el catálogo.
func ReadCatalog(r io.Reader) (*CatalogFile, error) {
	var cat CatalogFile
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("decodificar catálogo: %w", err)
	}
	seen := make(map[string]struct{})
	for _, p := range cat.Products {
		if p.ID == "" || p.SKU == "" {
			return nil, fmt.Errorf("producto sin id o sku")
		}
		if p.Stock.IsNegative() {
			return nil, fmt.Errorf("producto %s: stock negativo", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("producto duplicado: %s", p.ID)
		}
		seen[p.ID] = struct{}{}
		for _, v := range p.Variants {
			if v.ID == "" || v.Stock.IsNegative() {
				return nil, fmt.Errorf("producto %s: variante inválida %q", p.ID, v.ID)
			}
		}
	}
	for i := range cat.Coupons {
		cat.Coupons[i].Code = entity.NormalizeCouponCode(cat.Coupons[i].Code)
		if cat.Coupons[i].Code == "" || !cat.Coupons[i].Kind.Valid() {
			return nil, fmt.Errorf("cupón inválido en posición %d", i)
		}
	}
	return &cat, nil
}

// LoadCatalogFile abre path y lo decodifica.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("abrir catálogo: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

// Seed carga el catálogo en el store.
func (s *Store) Seed(cat *CatalogFile, now time.Time) {
	for _, p := range cat.Products {
		s.PutProduct(entity.Product{
			ID: p.ID, SKU: p.SKU, Name: p.Name, Active: p.Active, Stock: p.Stock,
			Price: p.Price, OfferPrice: p.OfferPrice, Weight: p.Weight,
			CreatedAt: now, UpdatedAt: now,
		})
		for _, v := range p.Variants {
			s.PutVariant(entity.Variant{
				ID: v.ID, ProductID: p.ID, SKU: v.SKU, Name: v.Name, Active: v.Active, Stock: v.Stock,
				Price: v.Price, OfferPrice: v.OfferPrice, Weight: v.Weight,
				CreatedAt: now, UpdatedAt: now,
			})
		}
	}
	for _, c := range cat.Coupons {
		s.PutCoupon(c)
	}
}
