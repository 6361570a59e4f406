package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/pricing"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
	"github.com/jhoicas/tienda-api/internal/domain/shipping"
	"github.com/jhoicas/tienda-api/pkg/logger"
)

// Config límites del carrito.
type Config struct {
	MaxItemQuantity int           // tope de unidades por línea
	TTL             time.Duration // vigencia en el store, se renueva en cada escritura
}

// DefaultConfig 10 unidades por línea, 24 h de vigencia.
func DefaultConfig() Config {
	return Config{MaxItemQuantity: 10, TTL: 24 * time.Hour}
}

// UseCase operaciones sobre el carrito de una sesión. Cada operación lee el carrito del store,
// lo muta, recalcula el resumen completo y lo vuelve a escribir (último en escribir gana).
type UseCase struct {
	store    repository.CartStore
	catalog  repository.ProductRepository
	coupons  repository.CouponRepository
	engine   *pricing.Engine
	shipping *shipping.Calculator
	cfg      Config
	log      *logger.Logger
	now      func() time.Time
	sfg      singleflight.Group // evita lecturas duplicadas del store por la misma sesión
}

// NewUseCase construye el caso de uso. log puede ser nil.
func NewUseCase(
	store repository.CartStore,
	catalog repository.ProductRepository,
	coupons repository.CouponRepository,
	engine *pricing.Engine,
	calc *shipping.Calculator,
	cfg Config,
	log *logger.Logger,
) *UseCase {
	if cfg.MaxItemQuantity <= 0 {
		cfg.MaxItemQuantity = DefaultConfig().MaxItemQuantity
	}
	return &UseCase{
		store:    store,
		catalog:  catalog,
		coupons:  coupons,
		engine:   engine,
		shipping: calc,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("cart"),
		now:      time.Now,
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *UseCase) WithClock(now func() time.Time) *UseCase {
	uc.now = now
	return uc
}

// AddItemInput producto o variante a agregar.
type AddItemInput struct {
	ProductID string
	VariantID string
	Quantity  int
	OwnerID   string // usuario autenticado, opcional
}

// ItemChange línea cuya cantidad fue ajustada al stock disponible.
type ItemChange struct {
	ItemID       string `json:"item_id"`
	PreviousQty  int    `json:"previous_quantity"`
	AdjustedQty  int    `json:"adjusted_quantity"`
	AvailableQty int    `json:"available_quantity"`
}

// ReconcileResult resultado de ReconcileAvailability.
type ReconcileResult struct {
	Cart              *entity.Cart `json:"cart"`
	ItemsChanged      []ItemChange `json:"items_changed"`
	ItemsWithoutStock []string     `json:"items_without_stock"`
}

// GetCart devuelve el carrito de la sesión o uno vacío si no existe (no se persiste).
func (uc *UseCase) GetCart(ctx context.Context, sessionKey string) (*entity.Cart, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, domain.ErrInvalidInput
	}
	v, err, shared := uc.sfg.Do(sessionKey, func() (interface{}, error) {
		return uc.load(ctx, sessionKey)
	})
	if err != nil {
		return nil, err
	}
	cart := v.(*entity.Cart)
	if shared {
		cart = cloneCart(cart)
	}
	return cart, nil
}

// AddItem agrega la cantidad a la línea del producto/variante o crea una nueva.
func (uc *UseCase) AddItem(ctx context.Context, sessionKey string, in AddItemInput) (*entity.Cart, error) {
	if in.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	snap, err := uc.snapshot(ctx, in.ProductID, in.VariantID)
	if err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	id := entity.LineItemID(snap.ProductID, snap.VariantID)
	idx := cart.FindItem(id)
	newQty := in.Quantity
	if idx >= 0 {
		newQty += cart.Items[idx].Quantity
	}
	if newQty > uc.cfg.MaxItemQuantity {
		return nil, domain.ErrOutOfRange
	}
	if snap.AvailableStock.LessThan(decimal.NewFromInt(int64(newQty))) {
		return nil, domain.ErrInsufficientStock
	}

	if idx >= 0 {
		it := &cart.Items[idx]
		it.Quantity = newQty
		it.AvailableStock = snap.AvailableStock
		it.ModifiedAt = now
		it.RecomputeSubtotal()
	} else {
		snap.ItemID = id
		snap.Quantity = newQty
		snap.CreatedAt = now
		snap.ModifiedAt = now
		snap.RecomputeSubtotal()
		cart.Items = append(cart.Items, snap)
	}
	if cart.OwnerID == "" {
		cart.OwnerID = in.OwnerID
	}
	return uc.save(ctx, cart, true)
}

// UpdateQuantity fija la cantidad de una línea; quantity <= 0 equivale a RemoveItem.
// Bajar la cantidad no consulta el catálogo.
func (uc *UseCase) UpdateQuantity(ctx context.Context, sessionKey, itemID string, quantity int) (*entity.Cart, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	if quantity <= 0 {
		cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
		return uc.save(ctx, cart, true)
	}
	if quantity > uc.cfg.MaxItemQuantity {
		return nil, domain.ErrOutOfRange
	}

	it := &cart.Items[idx]
	// solo subir la cantidad exige stock y producto habilitado
	if quantity > it.Quantity {
		snap, err := uc.snapshot(ctx, it.ProductID, it.VariantID)
		if err != nil {
			return nil, err
		}
		if snap.AvailableStock.LessThan(decimal.NewFromInt(int64(quantity))) {
			return nil, domain.ErrInsufficientStock
		}
		it.AvailableStock = snap.AvailableStock
	}
	it.Quantity = quantity
	it.ModifiedAt = uc.now().UTC()
	it.RecomputeSubtotal()
	return uc.save(ctx, cart, true)
}

// RemoveItem elimina la línea.
func (uc *UseCase) RemoveItem(ctx context.Context, sessionKey, itemID string) (*entity.Cart, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	idx := cart.FindItem(itemID)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return uc.save(ctx, cart, true)
}

// Clear vacía el carrito y descarta cupón y envío elegido.
func (uc *UseCase) Clear(ctx context.Context, sessionKey string) (*entity.Cart, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	cart.Items = []entity.CartLineItem{}
	cart.Coupon = nil
	return uc.save(ctx, cart, true)
}

// ApplyCoupon busca el cupón, lo valida contra el subtotal actual y lo deja aplicado.
// Con un cupón ya aplicado falla con ErrCouponAlreadyApplied sin tocar el carrito.
func (uc *UseCase) ApplyCoupon(ctx context.Context, sessionKey, code string) (*entity.Cart, error) {
	code = entity.NormalizeCouponCode(code)
	if code == "" {
		return nil, domain.ErrInvalidInput
	}
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if cart.Coupon != nil {
		return nil, domain.ErrCouponAlreadyApplied
	}

	now := uc.now()
	coupon, err := uc.coupons.FindActiveByCode(ctx, code, now)
	if err != nil {
		return nil, fmt.Errorf("buscar cupón: %w", err)
	}
	if coupon == nil {
		return nil, domain.NewCouponError(code, domain.CouponReasonNotFound)
	}
	subtotal := uc.engine.Recompute(cart.Items, nil, now).Subtotal
	if err := pricing.ValidateCoupon(*coupon, subtotal, now); err != nil {
		uc.log.Warn().Err(err).Str("session", sessionKey).Msg("cupón rechazado")
		return nil, err
	}

	cart.Coupon = coupon
	return uc.save(ctx, cart, true)
}

// RemoveCoupon quita el cupón aplicado si coincide el código.
func (uc *UseCase) RemoveCoupon(ctx context.Context, sessionKey, code string) (*entity.Cart, error) {
	code = entity.NormalizeCouponCode(code)
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if cart.Coupon == nil || cart.Coupon.Code != code {
		return nil, domain.NewCouponError(code, domain.CouponReasonNotApplied)
	}
	cart.Coupon = nil
	return uc.save(ctx, cart, true)
}

// ReconcileAvailability revisa el stock vivo de cada línea: quita las que ya no tienen stock o
// cuyo producto/variante se desactivó y ajusta al disponible las que exceden el stock.
// Una segunda ejecución sin cambios de stock no reporta nada.
func (uc *UseCase) ReconcileAvailability(ctx context.Context, sessionKey string) (*ReconcileResult, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	res := &ReconcileResult{ItemsChanged: []ItemChange{}, ItemsWithoutStock: []string{}}

	now := uc.now().UTC()
	kept := make([]entity.CartLineItem, 0, len(cart.Items))
	itemsChanged := false
	snapshotChanged := false
	for _, it := range cart.Items {
		snap, err := uc.snapshot(ctx, it.ProductID, it.VariantID)
		if err != nil && !isUnavailable(err) {
			return nil, err
		}
		available := 0
		if err == nil {
			available = int(snap.AvailableStock.Floor().IntPart())
		}
		if available <= 0 {
			res.ItemsWithoutStock = append(res.ItemsWithoutStock, it.ItemID)
			itemsChanged = true
			continue
		}
		if !it.AvailableStock.Equal(snap.AvailableStock) {
			it.AvailableStock = snap.AvailableStock
			snapshotChanged = true
		}
		if it.Quantity > available {
			res.ItemsChanged = append(res.ItemsChanged, ItemChange{
				ItemID:       it.ItemID,
				PreviousQty:  it.Quantity,
				AdjustedQty:  available,
				AvailableQty: available,
			})
			it.Quantity = available
			it.ModifiedAt = now
			it.RecomputeSubtotal()
			itemsChanged = true
		}
		kept = append(kept, it)
	}

	if !itemsChanged && !snapshotChanged {
		res.Cart = cart
		return res, nil
	}
	cart.Items = kept
	saved, err := uc.save(ctx, cart, itemsChanged)
	if err != nil {
		return nil, err
	}
	if itemsChanged {
		uc.log.Info().
			Str("session", sessionKey).
			Int("changed", len(res.ItemsChanged)).
			Int("without_stock", len(res.ItemsWithoutStock)).
			Msg("carrito conciliado con el stock")
	}
	res.Cart = saved
	return res, nil
}

// QuoteShipping cotiza el envío del carrito al destino.
func (uc *UseCase) QuoteShipping(ctx context.Context, sessionKey string, dest entity.Destination) ([]entity.ShippingOption, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return uc.quote(cart, dest)
}

// SelectShipping vuelve a cotizar y guarda la opción elegida si es elegible.
func (uc *UseCase) SelectShipping(ctx context.Context, sessionKey, code string, dest entity.Destination) (*entity.Cart, error) {
	cart, err := uc.loadForUpdate(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	options, err := uc.quote(cart, dest)
	if err != nil {
		return nil, err
	}
	for _, opt := range options {
		if opt.Code != code {
			continue
		}
		if !opt.Eligible {
			return nil, fmt.Errorf("%s: %s: %w", opt.Code, opt.IneligibleReason, domain.ErrInvalidInput)
		}
		cart.Shipping = &entity.ShippingSelection{
			Code:          opt.Code,
			Destination:   dest.Normalize(),
			Cost:          opt.Cost,
			EstimatedDays: opt.EstimatedDays,
			SelectedAt:    uc.now().UTC(),
		}
		return uc.save(ctx, cart, false)
	}
	return nil, fmt.Errorf("opción de envío %q: %w", code, domain.ErrInvalidInput)
}

func (uc *UseCase) quote(cart *entity.Cart, dest entity.Destination) ([]entity.ShippingOption, error) {
	if cart.State() == entity.CartEmpty {
		return nil, domain.ErrInvalidInput
	}
	summary := uc.engine.Recompute(cart.Items, cart.Coupon, uc.now())
	freeCoupon := cart.Coupon != nil &&
		cart.Coupon.Kind == entity.CouponFreeShipping &&
		summary.CouponWarning == ""
	return uc.shipping.Quote(shipping.QuoteRequest{
		Destination:        dest,
		TotalWeight:        summary.TotalWeight,
		OrderValue:         summary.Subtotal,
		FreeShippingCoupon: freeCoupon,
	})
}

// snapshot arma una línea con precio, peso y stock vigentes del producto o variante.
func (uc *UseCase) snapshot(ctx context.Context, productID, variantID string) (entity.CartLineItem, error) {
	if productID == "" {
		return entity.CartLineItem{}, domain.ErrInvalidInput
	}
	p, err := uc.catalog.GetByID(ctx, productID)
	if err != nil {
		return entity.CartLineItem{}, fmt.Errorf("buscar producto: %w", err)
	}
	if p == nil {
		return entity.CartLineItem{}, domain.ErrNotFound
	}
	if !p.Active {
		return entity.CartLineItem{}, domain.ErrTargetInactive
	}
	line := entity.CartLineItem{
		ProductID:      p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		UnitPrice:      p.Price,
		OfferPrice:     p.OfferPrice,
		WeightPerUnit:  p.Weight,
		AvailableStock: p.Stock,
	}
	if variantID != "" {
		v, err := uc.catalog.GetVariant(ctx, variantID)
		if err != nil {
			return entity.CartLineItem{}, fmt.Errorf("buscar variante: %w", err)
		}
		if v == nil {
			return entity.CartLineItem{}, domain.ErrNotFound
		}
		if v.ProductID != p.ID {
			return entity.CartLineItem{}, domain.ErrTargetMismatch
		}
		if !v.Active {
			return entity.CartLineItem{}, domain.ErrTargetInactive
		}
		line.VariantID = v.ID
		line.SKU = v.SKU
		line.Name = p.Name + " - " + v.Name
		line.AvailableStock = v.Stock
		if v.Price.IsPositive() {
			line.UnitPrice = v.Price
			line.OfferPrice = v.OfferPrice
		} else if v.OfferPrice != nil {
			line.OfferPrice = v.OfferPrice
		}
		if v.Weight.IsPositive() {
			line.WeightPerUnit = v.Weight
		}
	}
	// una oferta solo cuenta si no supera el precio de lista
	if line.OfferPrice != nil && line.OfferPrice.GreaterThan(line.UnitPrice) {
		line.OfferPrice = nil
	}
	if line.OfferPrice != nil {
		offer := *line.OfferPrice
		line.OfferPrice = &offer
	}
	return line, nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrTargetInactive) ||
		errors.Is(err, domain.ErrTargetMismatch)
}

func (uc *UseCase) load(ctx context.Context, sessionKey string) (*entity.Cart, error) {
	cart, err := uc.store.Get(ctx, sessionKey)
	if err != nil {
		uc.log.Error().Err(err).Str("session", sessionKey).Msg("no se pudo leer el carrito")
		return nil, fmt.Errorf("leer carrito: %w", err)
	}
	if cart == nil {
		cart = entity.NewCart(sessionKey, uc.now().UTC())
		cart.Summary = uc.engine.Recompute(nil, nil, uc.now())
	}
	if cart.Items == nil {
		cart.Items = []entity.CartLineItem{}
	}
	return cart, nil
}

func (uc *UseCase) loadForUpdate(ctx context.Context, sessionKey string) (*entity.Cart, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.load(ctx, sessionKey)
}

// save recalcula el resumen y escribe el carrito renovando el TTL.
// Si cambiaron ítems o cupón, la selección de envío deja de valer.
func (uc *UseCase) save(ctx context.Context, cart *entity.Cart, resetShipping bool) (*entity.Cart, error) {
	now := uc.now().UTC()
	if resetShipping {
		cart.Shipping = nil
	}
	cart.Summary = uc.engine.Recompute(cart.Items, cart.Coupon, now)
	cart.UpdatedAt = now

	prevSynced := cart.SyncedAt
	cart.Dirty = false
	cart.SyncedAt = &now
	if err := uc.store.Put(ctx, cart.SessionKey, cart, uc.cfg.TTL); err != nil {
		cart.Dirty = true
		cart.SyncedAt = prevSynced
		uc.log.Error().Err(err).Str("session", cart.SessionKey).Msg("no se pudo guardar el carrito")
		return nil, fmt.Errorf("guardar carrito: %w", err)
	}
	return cart, nil
}
