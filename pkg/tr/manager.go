package tr

import (
	"context"

	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// Manager выполняет функцию в рамках транзакции, доступной репозиториям
// через контекст (см. TxFromCtx).
type Manager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxManager реализует Manager поверх pgx-транзакций.
type PgxManager struct {
	pool transaction.Transactional
}

func NewPgxManager(pool transaction.Transactional) *PgxManager {
	return &PgxManager{pool: pool}
}

// Do открывает транзакцию, кладёт её в контекст и коммитит после успешного fn.
// При ошибке транзакция откатывается.
func (m *PgxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, m.pool)
	if err != nil {
		return err
	}
	defer func() {
		if tx.IsActive() {
			tx.Rollback(ctx)
		}
	}()

	ctx = context.WithValue(ctx, "tx", tx.Transaction())

	if err := fn(ctx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
