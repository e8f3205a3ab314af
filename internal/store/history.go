package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/efreitasn/toymarket/internal/domain"
)

// PricePoint is one sampled price without the company join.
type PricePoint struct {
	Timestamp int64 `db:"ts"`
	Price     int64 `db:"price"`
}

// InsertHistory appends entries. Run it inside a transaction so a snapshot
// lands as a whole.
func InsertHistory(ctx context.Context, q Querier, entries []domain.HistoryEntry) error {
	stmt := q.Rebind(`INSERT INTO history (ts, company_id, price) VALUES (?, ?, ?)`)
	for _, e := range entries {
		if _, err := q.ExecContext(ctx, stmt, e.Timestamp, e.CompanyID, e.Price); err != nil {
			return unavailable("insert history", err)
		}
	}
	return nil
}

// ListHistory returns entries ascending by timestamp, id breaking ties. A
// nil companyID returns every company.
func ListHistory(ctx context.Context, q Querier, companyID *int64) ([]domain.HistoryEntry, error) {
	query := `SELECT h.id, h.ts, h.company_id, c.name AS company_name, h.price
		FROM history h JOIN companies c ON c.id = h.company_id`
	var args []any
	if companyID != nil {
		query += ` WHERE h.company_id = ?`
		args = append(args, *companyID)
	}
	query += ` ORDER BY h.ts ASC, h.id ASC`

	var out []domain.HistoryEntry
	if err := sqlx.SelectContext(ctx, q, &out, q.Rebind(query), args...); err != nil {
		return nil, unavailable("list history", err)
	}
	return out, nil
}

// ListPricePoints returns every sampled (timestamp, price) pair.
func ListPricePoints(ctx context.Context, q Querier) ([]PricePoint, error) {
	var out []PricePoint
	if err := sqlx.SelectContext(ctx, q, &out, `SELECT ts, price FROM history`); err != nil {
		return nil, unavailable("list price points", err)
	}
	return out, nil
}
