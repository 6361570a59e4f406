package inventory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/inventory"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
	"github.com/jhoicas/tienda-api/pkg/logger"
)

// LedgerUseCase registra movimientos de stock de forma atómica (lectura con bloqueo, cálculo,
// escritura del stock y del asiento en la misma unidad) y expone las consultas del ledger.
type LedgerUseCase struct {
	txRunner TxRunner
	movRepo  repository.StockMovementRepository
	log      *logger.Logger
	now      Clock
	newID    func() string

	// serializa reservar/liberar de un mismo carrito dentro del proceso
	reservationLocks [reservationStripes]sync.Mutex
}

// NewLedgerUseCase construye el caso de uso. log puede ser nil.
func NewLedgerUseCase(txRunner TxRunner, movRepo repository.StockMovementRepository, log *logger.Logger) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner: txRunner,
		movRepo:  movRepo,
		log:      logger.OrNop(log).Named("ledger"),
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// WithClock reemplaza la fuente de tiempo (tests).
func (uc *LedgerUseCase) WithClock(c Clock) *LedgerUseCase {
	uc.now = c
	return uc
}

// MovementInputDTO entrada para registrar un movimiento.
// En Adjustment, Quantity es el stock final deseado; en el resto es la magnitud del movimiento.
type MovementInputDTO struct {
	ProductID string
	VariantID string
	Kind      entity.MovementKind
	Quantity  decimal.Decimal
	Reason    string
	Reference string
	ActorID   string
}

func (in MovementInputDTO) validate() error {
	if strings.TrimSpace(in.ProductID) == "" || strings.TrimSpace(in.ActorID) == "" {
		return domain.ErrInvalidInput
	}
	if !in.Kind.Valid() {
		return domain.ErrInvalidInput
	}
	reason := strings.TrimSpace(in.Reason)
	if reason == "" || utf8.RuneCountInString(reason) > entity.MaxReasonLength {
		return domain.ErrInvalidInput
	}
	if utf8.RuneCountInString(in.Reference) > entity.MaxReferenceLength {
		return domain.ErrInvalidInput
	}
	if in.Kind == entity.MovementAdjustment {
		if in.Quantity.IsNegative() {
			return domain.ErrInvalidQuantity
		}
		return nil
	}
	if !in.Quantity.IsPositive() {
		return domain.ErrInvalidQuantity
	}
	return nil
}

// RecordMovement valida el target (y la variante), bloquea su stock, calcula la transición y
// persiste stock y asiento juntos. Ante cualquier error no queda cambio alguno.
func (uc *LedgerUseCase) RecordMovement(ctx context.Context, in MovementInputDTO) (*entity.LedgerEntry, error) {
	if err := in.validate(); err != nil {
		uc.log.Warn().Err(err).Str("product_id", in.ProductID).Str("kind", in.Kind.String()).Msg("movimiento rechazado")
		return nil, err
	}

	var entry *entity.LedgerEntry
	err := uc.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		stockRepo repository.StockRepository,
		catalog repository.ProductRepository,
	) error {
		target, err := resolveTarget(ctx, catalog, in.ProductID, in.VariantID)
		if err != nil {
			return err
		}

		// Bloquea el stock del target hasta el fin de la unidad
		before, err := stockRepo.GetForUpdate(ctx, target)
		if err != nil {
			return err
		}
		tr, err := inventory.ComputeTransition(before, in.Quantity, in.Kind)
		if err != nil {
			return err
		}
		if err := stockRepo.CompareAndSetStock(ctx, target, before, tr.NewStock); err != nil {
			return err
		}

		e := &entity.LedgerEntry{
			ID:                uc.newID(),
			Target:            target,
			Kind:              in.Kind,
			RequestedQuantity: in.Quantity,
			StockBefore:       before,
			StockAfter:        tr.NewStock,
			SignedQuantity:    tr.SignedQuantity,
			Reason:            strings.TrimSpace(in.Reason),
			Reference:         in.Reference,
			ActorID:           in.ActorID,
			CreatedAt:         uc.now().UTC(),
		}
		if err := movRepo.Create(ctx, e); err != nil {
			return err
		}
		entry = e
		return nil
	})
	if err != nil {
		ev := uc.log.Error()
		if isRejection(err) {
			ev = uc.log.Warn()
		}
		ev.Err(err).
			Str("product_id", in.ProductID).
			Str("variant_id", in.VariantID).
			Str("kind", in.Kind.String()).
			Str("quantity", in.Quantity.String()).
			Str("actor", in.ActorID).
			Msg("movimiento rechazado")
		return nil, err
	}

	uc.log.Info().
		Str("target", entry.Target.Key()).
		Str("kind", entry.Kind.String()).
		Str("stock_before", entry.StockBefore.String()).
		Str("stock_after", entry.StockAfter.String()).
		Str("actor", entry.ActorID).
		Msg("movimiento registrado")
	return entry, nil
}

// resolveTarget valida producto y variante: existencia, pertenencia y que estén activos.
func resolveTarget(ctx context.Context, catalog repository.ProductRepository, productID, variantID string) (entity.StockTarget, error) {
	product, err := catalog.GetByID(ctx, productID)
	if err != nil {
		return entity.StockTarget{}, err
	}
	if product == nil {
		return entity.StockTarget{}, domain.ErrNotFound
	}
	if !product.Active {
		return entity.StockTarget{}, domain.ErrTargetInactive
	}
	target := entity.StockTarget{ProductID: product.ID}
	if variantID == "" {
		return target, nil
	}

	variant, err := catalog.GetVariant(ctx, variantID)
	if err != nil {
		return entity.StockTarget{}, err
	}
	if variant == nil {
		return entity.StockTarget{}, domain.ErrNotFound
	}
	if variant.ProductID != product.ID {
		return entity.StockTarget{}, domain.ErrTargetMismatch
	}
	if !variant.Active {
		return entity.StockTarget{}, domain.ErrTargetInactive
	}
	target.VariantID = variant.ID
	return target, nil
}

// isRejection indica si err es un error de negocio (no de infraestructura).
func isRejection(err error) bool {
	for _, e := range []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrInsufficientStock,
		domain.ErrInvalidQuantity,
		domain.ErrTargetInactive,
		domain.ErrTargetMismatch,
		domain.ErrConflict,
	} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// GetMovement devuelve un asiento por ID.
func (uc *LedgerUseCase) GetMovement(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	if id == "" {
		return nil, domain.ErrInvalidInput
	}
	e, err := uc.movRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// ListByTarget asientos de un producto o variante, más recientes primero.
func (uc *LedgerUseCase) ListByTarget(ctx context.Context, target entity.StockTarget, from, to *time.Time, limit, offset int) ([]*entity.LedgerEntry, error) {
	if target.ProductID == "" && target.VariantID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.List(ctx, repository.MovementFilter{
		ProductID: target.ProductID,
		VariantID: target.VariantID,
		From:      from,
		To:        to,
		Limit:     limit,
		Offset:    offset,
	})
}

// ListByActor asientos registrados por un actor.
func (uc *LedgerUseCase) ListByActor(ctx context.Context, actorID string, from, to *time.Time, limit, offset int) ([]*entity.LedgerEntry, error) {
	if actorID == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.movRepo.List(ctx, repository.MovementFilter{
		ActorID: actorID,
		From:    from,
		To:      to,
		Limit:   limit,
		Offset:  offset,
	})
}
