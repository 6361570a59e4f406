package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/tienda-api/internal/domain"
)

// Querier lo cumplen *pgxpool.Pool y pgx.Tx: los repos funcionan dentro o fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	codeLockNotAvailable = "55P03" // lock_timeout vencido
	codeDeadlock         = "40P01"
	codeSerialization    = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// mapLockError traduce timeouts de lock y deadlocks a domain.ErrConflict (el cliente puede reintentar).
func mapLockError(err error) error {
	switch pgCode(err) {
	case codeLockNotAvailable, codeDeadlock, codeSerialization:
		return errors.Join(domain.ErrConflict, err)
	}
	return err
}
