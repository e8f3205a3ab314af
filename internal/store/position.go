package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/efreitasn/toymarket/internal/domain"
)

// GetPosition returns the amount held, or 0 when no row exists.
func GetPosition(ctx context.Context, q Querier, userID, companyID int64) (int64, error) {
	var amount int64
	err := sqlx.GetContext(ctx, q, &amount, q.Rebind(
		`SELECT amount FROM positions WHERE user_id = ? AND company_id = ?`),
		userID, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, unavailable("get position", err)
	}
	if amount < 0 {
		return 0, domain.CorruptStatef("position %d/%d: amount=%d", userID, companyID, amount)
	}
	return amount, nil
}

// SetPosition upserts the amount for (userID, companyID). Zero rows are
// kept.
func SetPosition(ctx context.Context, q Querier, userID, companyID, amount int64) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO positions (user_id, company_id, amount) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, company_id) DO UPDATE SET amount = excluded.amount`),
		userID, companyID, amount)
	if err != nil {
		return unavailable("set position", err)
	}
	return nil
}

// OwnedPositions lists the positions of userID with a positive amount,
// ordered by company id.
func OwnedPositions(ctx context.Context, q Querier, userID int64) ([]domain.Position, error) {
	var out []domain.Position
	err := sqlx.SelectContext(ctx, q, &out, q.Rebind(
		`SELECT user_id, company_id, amount FROM positions
		 WHERE user_id = ? AND amount > 0 ORDER BY company_id`), userID)
	if err != nil {
		return nil, unavailable("owned positions", err)
	}
	return out, nil
}
