package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/efreitasn/toymarket/internal/domain"
)

// GetAccount loads one account.
func GetAccount(ctx context.Context, q Querier, userID int64) (*domain.Account, error) {
	var a domain.Account
	err := sqlx.GetContext(ctx, q, &a,
		q.Rebind(`SELECT user_id, balance, frozen FROM accounts WHERE user_id = ?`), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrAccountNotFound
	}
	if err != nil {
		return nil, unavailable("get account", err)
	}
	if a.Balance < 0 {
		return nil, domain.CorruptStatef("account %d: balance=%d", a.UserID, a.Balance)
	}
	return &a, nil
}

// InsertAccountIfMissing creates an account with the given balance. An
// existing row is left untouched. It reports whether a row was created.
func InsertAccountIfMissing(ctx context.Context, q Querier, userID, balance int64) (bool, error) {
	res, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO accounts (user_id, balance, frozen) VALUES (?, ?, 0)
		 ON CONFLICT (user_id) DO NOTHING`), userID, balance)
	if err != nil {
		return false, unavailable("insert account", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, unavailable("rows affected", err)
	}
	return n > 0, nil
}

// UpdateAccount writes balance and frozen flag.
func UpdateAccount(ctx context.Context, q Querier, a *domain.Account) error {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE accounts SET balance = ?, frozen = ? WHERE user_id = ?`),
		a.Balance, boolToInt(a.Frozen), a.UserID)
	if err != nil {
		return unavailable("update account", err)
	}
	return expectOne(res, domain.ErrAccountNotFound)
}

// RankAccounts returns up to limit accounts by balance descending, user id
// ascending on ties.
func RankAccounts(ctx context.Context, q Querier, limit int) ([]domain.Account, error) {
	var out []domain.Account
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(
		`SELECT user_id, balance, frozen FROM accounts
		 ORDER BY balance DESC, user_id ASC LIMIT ?`), limit)
	if err != nil {
		return nil, unavailable("rank accounts", err)
	}
	return out, nil
}
