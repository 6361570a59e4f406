package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// DefaultLockTimeout espera máxima por el lock de un target.
const DefaultLockTimeout = 3 * time.Second

// Store catálogo, cupones, ledger y stock en memoria.
// El stock de cada target se serializa con un lock propio (canal de capacidad 1)
// para que movimientos sobre targets distintos avancen en paralelo.
type Store struct {
	mu       sync.RWMutex
	products map[string]*entity.Product
	variants map[string]*entity.Variant
	coupons  map[string]*entity.Coupon
	entries  []*entity.LedgerEntry

	locksMu     sync.Mutex
	locks       map[string]chan struct{}
	lockTimeout time.Duration
}

var (
	_ repository.ProductRepository = (*Store)(nil)
	_ repository.CouponRepository  = (*Store)(nil)
)

// NewStore crea un store vacío. lockTimeout <= 0 usa DefaultLockTimeout.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &Store{
		products:    make(map[string]*entity.Product),
		variants:    make(map[string]*entity.Variant),
		coupons:     make(map[string]*entity.Coupon),
		locks:       make(map[string]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// PutProduct inserta o reemplaza un producto.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = &p
}

// PutVariant inserta o reemplaza una variante.
func (s *Store) PutVariant(v entity.Variant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants[v.ID] = &v
}

// PutCoupon inserta o reemplaza un cupón (el código se normaliza).
func (s *Store) PutCoupon(c entity.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.Code = entity.NormalizeCouponCode(c.Code)
	s.coupons[c.Code] = &c
}

// Stock devuelve el stock confirmado del target.
func (s *Store) Stock(target entity.StockTarget) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stockLocked(target)
}

func (s *Store) stockLocked(target entity.StockTarget) (decimal.Decimal, error) {
	if target.IsVariant() {
		v, ok := s.variants[target.VariantID]
		if !ok {
			return decimal.Zero, domain.ErrNotFound
		}
		return v.Stock, nil
	}
	p, ok := s.products[target.ProductID]
	if !ok {
		return decimal.Zero, domain.ErrNotFound
	}
	return p.Stock, nil
}

func (s *Store) setStockLocked(target entity.StockTarget, value decimal.Decimal, now time.Time) {
	if target.IsVariant() {
		if v, ok := s.variants[target.VariantID]; ok {
			v.Stock = value
			v.UpdatedAt = now
		}
		return
	}
	if p, ok := s.products[target.ProductID]; ok {
		p.Stock = value
		p.UpdatedAt = now
	}
}

// GetByID devuelve una copia del producto; (nil, nil) si no existe.
func (s *Store) GetByID(_ context.Context, id string) (*entity.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// GetVariant devuelve una copia de la variante; (nil, nil) si no existe.
func (s *Store) GetVariant(_ context.Context, id string) (*entity.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.variants[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

// FindActiveByCode cupón activo con ese código. La vigencia la valida el evaluador para
// poder informar el motivo (no iniciado, vencido).
func (s *Store) FindActiveByCode(_ context.Context, code string, _ time.Time) (*entity.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.coupons[entity.NormalizeCouponCode(code)]
	if !ok || !c.Active {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

// MovementRepository ledger en memoria sobre el Store (lecturas fuera de transacción).
type MovementRepository struct {
	s *Store
}

var _ repository.StockMovementRepository = (*MovementRepository)(nil)

// Movements devuelve el repositorio del ledger.
func (s *Store) Movements() *MovementRepository {
	return &MovementRepository{s: s}
}

// Create agrega un asiento sin tocar stock (importaciones, tests).
func (r *MovementRepository) Create(_ context.Context, e *entity.LedgerEntry) error {
	if e == nil {
		return fmt.Errorf("asiento nil: %w", domain.ErrInvalidInput)
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *e
	r.s.entries = append(r.s.entries, &cp)
	return nil
}

// GetByID devuelve (nil, nil) si no existe.
func (r *MovementRepository) GetByID(_ context.Context, id string) (*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

// List asientos que cumplen el filtro, más recientes primero.
func (r *MovementRepository) List(_ context.Context, f repository.MovementFilter) ([]*entity.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*entity.LedgerEntry, 0)
	skipped := 0
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		e := r.s.entries[i]
		if !matches(e, f) {
			continue
		}
		if skipped < f.Offset {
			skipped++
			continue
		}
		cp := *e
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func matches(e *entity.LedgerEntry, f repository.MovementFilter) bool {
	switch {
	case f.ProductID != "" && e.Target.ProductID != f.ProductID:
		return false
	case f.VariantID != "" && e.Target.VariantID != f.VariantID:
		return false
	case f.ActorID != "" && e.ActorID != f.ActorID:
		return false
	case f.Reference != "" && e.Reference != f.Reference:
		return false
	case f.Kind != 0 && e.Kind != f.Kind:
		return false
	case f.From != nil && e.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && e.CreatedAt.After(*f.To):
		return false
	}
	return true
}

// lockTarget adquiere el lock del target o falla con ErrConflict al vencer el timeout.
func (s *Store) lockTarget(ctx context.Context, key string) (func(), error) {
	s.locksMu.Lock()
	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	s.locksMu.Unlock()

	timer := time.NewTimer(s.lockTimeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("lock %s: %w", key, domain.ErrConflict)
	}
}
