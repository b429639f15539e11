// README: Ledger store backed by PostgreSQL.
package ledger

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"zonetaxi/internal/types"
)

type Store struct {
	db       *pgxpool.Pool
	currency string
}

func NewStore(db *pgxpool.Pool, currency string) *Store {
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return &Store{db: db, currency: currency}
}

func (s *Store) Balance(ctx context.Context, account types.ID) (types.Money, error) {
	var amount int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM ledger_accounts WHERE account_id = $1`, string(account)).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return types.Money{Currency: s.currency}, nil
	}
	if err != nil {
		return types.Money{}, err
	}
	return types.Money{Amount: amount, Currency: s.currency}, nil
}

// Debit only succeeds when the balance covers the amount; the check and the
// write are the same statement.
func (s *Store) Debit(ctx context.Context, account types.ID, amount types.Money, ref string) error {
	if err := checkAmount(account, amount); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE ledger_accounts
			SET balance = balance - $2, updated_at = NOW()
			WHERE account_id = $1 AND balance >= $2`, string(account), amount.Amount)
		if err != nil {
			return err
		}
		if tag.RowsAffected() != 1 {
			return ErrInsufficientFunds
		}
		return insertEntry(ctx, tx, account, -amount.Amount, ref)
	})
}

func (s *Store) Credit(ctx context.Context, account types.ID, amount types.Money, ref string) error {
	if err := checkAmount(account, amount); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO ledger_accounts (account_id, balance, currency, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (account_id)
			DO UPDATE SET balance = ledger_accounts.balance + EXCLUDED.balance, updated_at = NOW()`,
			string(account), amount.Amount, s.currency)
		if err != nil {
			return err
		}
		return insertEntry(ctx, tx, account, amount.Amount, ref)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertEntry(ctx context.Context, tx pgx.Tx, account types.ID, delta int64, ref string) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO ledger_entries (account_id, delta, reference, created_at)
		VALUES ($1, $2, $3, NOW())`, string(account), delta, ref)
	return err
}
