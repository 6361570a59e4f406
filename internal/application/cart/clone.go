package cart

import "github.com/jhoicas/tienda-api/internal/domain/entity"

// cloneCart copia profunda: singleflight comparte el mismo puntero entre llamadas concurrentes.
func cloneCart(c *entity.Cart) *entity.Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = make([]entity.CartLineItem, len(c.Items))
	for i, it := range c.Items {
		if it.OfferPrice != nil {
			offer := *it.OfferPrice
			it.OfferPrice = &offer
		}
		cp.Items[i] = it
	}
	if c.Coupon != nil {
		coupon := *c.Coupon
		cp.Coupon = &coupon
	}
	if c.Shipping != nil {
		sel := *c.Shipping
		cp.Shipping = &sel
	}
	if c.SyncedAt != nil {
		t := *c.SyncedAt
		cp.SyncedAt = &t
	}
	if c.Summary.Discounts != nil {
		cp.Summary.Discounts = append([]entity.DiscountLine(nil), c.Summary.Discounts...)
	}
	return &cp
}
