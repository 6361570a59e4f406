package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/tienda-api/internal/domain/entity"
	"github.com/jhoicas/tienda-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*MovementRepo)(nil)

// MovementRepo ledger de movimientos sobre PostgreSQL (solo INSERT y SELECT).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, product_id, variant_id, kind, requested_quantity, stock_before, stock_after,
	signed_quantity, reason, reference, actor_id, created_at`

// Create persiste un asiento del ledger.
func (r *MovementRepo) Create(ctx context.Context, e *entity.LedgerEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	query := `INSERT INTO stock_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		e.ID, e.Target.ProductID, nullable(e.Target.VariantID), e.Kind.String(), e.RequestedQuantity,
		e.StockBefore, e.StockAfter, e.SignedQuantity, e.Reason, nullable(e.Reference), e.ActorID, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene un asiento por ID; (nil, nil) si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.LedgerEntry, error) {
	query := `SELECT ` + movementColumns + ` FROM stock_movements WHERE id = $1`
	e, err := scanMovement(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get movement: %w", err)
	}
	return e, nil
}

// List consulta el ledger con filtros opcionales, más recientes primero.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.LedgerEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.ProductID != "" {
		add("product_id = $%d", f.ProductID)
	}
	if f.VariantID != "" {
		add("variant_id = $%d", f.VariantID)
	}
	if f.ActorID != "" {
		add("actor_id = $%d", f.ActorID)
	}
	if f.Reference != "" {
		add("reference = $%d", f.Reference)
	}
	if f.Kind != 0 {
		add("kind = $%d", f.Kind.String())
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	query := `SELECT ` + movementColumns + ` FROM stock_movements`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	defer rows.Close()
	var list []*entity.LedgerEntry
	for rows.Next() {
		e, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanMovement(row pgx.Row) (*entity.LedgerEntry, error) {
	var (
		e                    entity.LedgerEntry
		variantID, reference *string
		kind                 string
	)
	err := row.Scan(&e.ID, &e.Target.ProductID, &variantID, &kind, &e.RequestedQuantity, &e.StockBefore,
		&e.StockAfter, &e.SignedQuantity, &e.Reason, &reference, &e.ActorID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	if e.Kind, err = entity.ParseMovementKind(kind); err != nil {
		return nil, err
	}
	if variantID != nil {
		e.Target.VariantID = *variantID
	}
	if reference != nil {
		e.Reference = *reference
	}
	return &e, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
