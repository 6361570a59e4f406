package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

// TxRunner unidad atómica en memoria: los locks de target se toman en GetForUpdate y se
// liberan al terminar; las escrituras quedan en buffer y se aplican juntas solo si fn no falla.
type TxRunner struct {
	store *Store
}

// NewTxRunner crea un TxRunner sobre el store.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios atados a la unidad.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	stockRepo repository.StockRepository,
	catalog repository.ProductRepository,
) error) error {
	tx := &memTx{
		store:   r.store,
		held:    make(map[string]func()),
		pending: make(map[string]pendingStock),
	}
	defer tx.releaseAll()

	if err := fn(&txMovementRepo{tx: tx}, &txStockRepo{tx: tx}, r.store); err != nil {
		return err
	}
	return tx.commit()
}

type pendingStock struct {
	target entity.StockTarget
	value  decimal.Decimal
}

type memTx struct {
	store   *Store
	held    map[string]func()
	pending map[string]pendingStock
	entries []*entity.LedgerEntry
}

func (tx *memTx) releaseAll() {
	for _, unlock := range tx.held {
		unlock()
	}
}

func (tx *memTx) commit() error {
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, p := range tx.pending {
		s.setStockLocked(p.target, p.value, now)
	}
	s.entries = append(s.entries, tx.entries...)
	return nil
}

// current stock visto por la unidad: escrituras pendientes primero.
func (tx *memTx) current(target entity.StockTarget) (decimal.Decimal, error) {
	if p, ok := tx.pending[target.Key()]; ok {
		return p.value, nil
	}
	return tx.store.Stock(target)
}

type txStockRepo struct {
	tx *memTx
}

func (r *txStockRepo) GetForUpdate(ctx context.Context, target entity.StockTarget) (decimal.Decimal, error) {
	key := target.Key()
	if _, ok := r.tx.held[key]; !ok {
		unlock, err := r.tx.store.lockTarget(ctx, key)
		if err != nil {
			return decimal.Zero, err
		}
		r.tx.held[key] = unlock
	}
	return r.tx.current(target)
}

func (r *txStockRepo) CompareAndSetStock(_ context.Context, target entity.StockTarget, expectedBefore, newValue decimal.Decimal) error {
	key := target.Key()
	if _, ok := r.tx.held[key]; !ok {
		return fmt.Errorf("stock %s sin bloquear: %w", key, domain.ErrConflict)
	}
	cur, err := r.tx.current(target)
	if err != nil {
		return err
	}
	if !cur.Equal(expectedBefore) {
		return fmt.Errorf("stock %s cambió: %w", key, domain.ErrConflict)
	}
	r.tx.pending[key] = pendingStock{target: target, value: newValue}
	return nil
}

type txMovementRepo struct {
	tx *memTx
}

func (r *txMovementRepo) Create(_ context.Context, e *entity.LedgerEntry) error {
	if e == nil {
		return fmt.Errorf("asiento nil: %w", domain.ErrInvalidInput)
	}
	cp := *e
	r.tx.entries = append(r.tx.entries, &cp)
	return nil
}

func (r *txMovementRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	for _, e := range r.tx.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return r.tx.store.Movements().GetByID(ctx, id)
}

func (r *txMovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.LedgerEntry, error) {
	return r.tx.store.Movements().List(ctx, f)
}
