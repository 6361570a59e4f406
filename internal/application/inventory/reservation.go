package inventory

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-api/internal/domain"
	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

const reservationStripes = 64

// PendingReservation cantidad reservada por un carrito y aún no liberada, por target.
type PendingReservation struct {
	Target   entity.StockTarget
	Quantity decimal.Decimal
}

// ReserveCart registra una reserva por línea del carrito, cada una en su propia unidad atómica.
// Falla con ErrConflict si el carrito ya tiene una reserva pendiente. Si una línea falla,
// libera lo ya reservado y devuelve el error de la línea.
func (uc *LedgerUseCase) ReserveCart(ctx context.Context, cart *entity.Cart, actorID string) ([]*entity.LedgerEntry, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, domain.ErrInvalidInput
	}
	reference := cartReference(cart.SessionKey)
	unlock := uc.lockReservation(reference)
	defer unlock()

	pending, err := uc.pendingReservation(ctx, reference)
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		uc.log.Warn().Str("reference", reference).Int("targets", len(pending)).Msg("el carrito ya tiene una reserva pendiente")
		return nil, fmt.Errorf("carrito %s ya reservado: %w", cart.SessionKey, domain.ErrConflict)
	}

	reserved := make([]*entity.LedgerEntry, 0, len(cart.Items))
	for _, it := range cart.Items {
		e, err := uc.RecordMovement(ctx, MovementInputDTO{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Kind:      entity.MovementReserve,
			Quantity:  decimal.NewFromInt(int64(it.Quantity)),
			Reason:    "reserva de carrito",
			Reference: reference,
			ActorID:   actorID,
		})
		if err != nil {
			uc.compensate(ctx, reserved, reference, actorID)
			return nil, fmt.Errorf("reservar %s: %w", it.ItemID, err)
		}
		reserved = append(reserved, e)
	}
	return reserved, nil
}

// ReleaseCart libera lo que el ledger registra como reservado y pendiente para el carrito,
// sin mirar su contenido actual. Si una línea falla sigue con las demás; un reintento
// solo libera lo que quedó pendiente. Sin reserva pendiente falla con ErrConflict.
func (uc *LedgerUseCase) ReleaseCart(ctx context.Context, cart *entity.Cart, actorID string) ([]*entity.LedgerEntry, error) {
	if cart == nil || strings.TrimSpace(cart.SessionKey) == "" {
		return nil, domain.ErrInvalidInput
	}
	reference := cartReference(cart.SessionKey)
	unlock := uc.lockReservation(reference)
	defer unlock()

	pending, err := uc.pendingReservation(ctx, reference)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, fmt.Errorf("carrito %s sin reserva pendiente: %w", cart.SessionKey, domain.ErrConflict)
	}

	released := make([]*entity.LedgerEntry, 0, len(pending))
	var errs []error
	for _, p := range pending {
		e, err := uc.RecordMovement(ctx, MovementInputDTO{
			ProductID: p.Target.ProductID,
			VariantID: p.Target.VariantID,
			Kind:      entity.MovementRelease,
			Quantity:  p.Quantity,
			Reason:    "liberación de carrito",
			Reference: reference,
			ActorID:   actorID,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("liberar %s: %w", p.Target.Key(), err))
			continue
		}
		released = append(released, e)
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		uc.log.Error().Err(err).Str("reference", reference).Int("released", len(released)).Msg("liberación parcial del carrito")
		return released, err
	}
	return released, nil
}

// PendingReservation devuelve lo reservado y no liberado por el carrito, en orden de reserva.
func (uc *LedgerUseCase) PendingReservation(ctx context.Context, sessionKey string) ([]PendingReservation, error) {
	if strings.TrimSpace(sessionKey) == "" {
		return nil, domain.ErrInvalidInput
	}
	return uc.pendingReservation(ctx, cartReference(sessionKey))
}

// pendingReservation suma reservas y resta liberaciones del ledger para la referencia.
func (uc *LedgerUseCase) pendingReservation(ctx context.Context, reference string) ([]PendingReservation, error) {
	entries, err := uc.movRepo.List(ctx, repository.MovementFilter{Reference: reference})
	if err != nil {
		return nil, fmt.Errorf("consultar reservas %s: %w", reference, err)
	}

	index := make(map[string]int)
	var totals []PendingReservation
	// List devuelve los más recientes primero
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		var delta decimal.Decimal
		switch e.Kind {
		case entity.MovementReserve:
			delta = e.RequestedQuantity
		case entity.MovementRelease:
			delta = e.RequestedQuantity.Neg()
		default:
			continue
		}
		key := e.Target.Key()
		n, ok := index[key]
		if !ok {
			n = len(totals)
			index[key] = n
			totals = append(totals, PendingReservation{Target: e.Target})
		}
		totals[n].Quantity = totals[n].Quantity.Add(delta)
	}

	pending := make([]PendingReservation, 0, len(totals))
	for _, t := range totals {
		if t.Quantity.IsPositive() {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (uc *LedgerUseCase) compensate(ctx context.Context, reserved []*entity.LedgerEntry, reference, actorID string) {
	for _, r := range reserved {
		_, err := uc.RecordMovement(ctx, MovementInputDTO{
			ProductID: r.Target.ProductID,
			VariantID: r.Target.VariantID,
			Kind:      entity.MovementRelease,
			Quantity:  r.RequestedQuantity,
			Reason:    "reversión de reserva",
			Reference: reference,
			ActorID:   actorID,
		})
		if err != nil {
			// queda pendiente en el ledger; ReleaseCart puede liberarlo después
			uc.log.Error().Err(err).Str("target", r.Target.Key()).Msg("no se pudo revertir la reserva")
		}
	}
}

func (uc *LedgerUseCase) lockReservation(reference string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(reference))
	mu := &uc.reservationLocks[h.Sum32()%reservationStripes]
	mu.Lock()
	return mu.Unlock
}

// cartReference referencia de los asientos de un carrito. Se corta por runas para no dejar
// UTF-8 inválido.
func cartReference(sessionKey string) string {
	ref := "cart:" + sessionKey
	if utf8.RuneCountInString(ref) <= entity.MaxReferenceLength {
		return ref
	}
	return string([]rune(ref)[:entity.MaxReferenceLength])
}
