package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BalanceStore keeps the platform-side view of player deposits in
// postgres. Keyed by lowercased account name.
type BalanceStore struct {
	pool *pgxpool.Pool
}

// NewBalanceStore creates a store backed by the given pool
func NewBalanceStore(pool *pgxpool.Pool) *BalanceStore {
	return &BalanceStore{pool: pool}
}

// EnsureSchema creates the balances table if it does not exist
func (s *BalanceStore) EnsureSchema(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS balances (
		account TEXT PRIMARY KEY,
		balance DOUBLE PRECISION NOT NULL DEFAULT 0
	)`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create balances table: %w", err)
	}
	return nil
}

// Credit adds amount to an account balance, creating the row on first
// deposit.
func (s *BalanceStore) Credit(ctx context.Context, account string, amount float64) error {
	query := `INSERT INTO balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = balances.balance + EXCLUDED.balance`
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query, account, amount)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to credit %s: %w", account, err)
	}
	return nil
}

// SetBalance overwrites an account balance
func (s *BalanceStore) SetBalance(ctx context.Context, account string, amount float64) error {
	query := `INSERT INTO balances (account, balance) VALUES ($1, $2)
		ON CONFLICT (account) DO UPDATE SET balance = EXCLUDED.balance`
	if _, err := s.pool.Exec(ctx, query, account, amount); err != nil {
		return fmt.Errorf("failed to set balance for %s: %w", account, err)
	}
	return nil
}

// Balance returns the recorded balance for an account, 0 when the
// account has never deposited.
func (s *BalanceStore) Balance(ctx context.Context, account string) (float64, error) {
	var balance float64
	query := `SELECT balance FROM balances WHERE account = $1`
	err := s.pool.QueryRow(ctx, query, account).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read balance for %s: %w", account, err)
	}
	return balance, nil
}
