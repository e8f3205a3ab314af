package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/efreitasn/toymarket/internal/domain"
)

const companyColumns = `id, name, price, total_stocks, available_stocks`

// GetCompany loads one company by id.
func GetCompany(ctx context.Context, q Querier, id int64) (*domain.Company, error) {
	var c domain.Company
	err := sqlx.GetContext(ctx, q, &c,
		q.Rebind(`SELECT `+companyColumns+` FROM companies WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCompanyNotFound
	}
	if err != nil {
		return nil, unavailable("get company", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCompanyByName loads one company by its unique name.
func GetCompanyByName(ctx context.Context, q Querier, name string) (*domain.Company, error) {
	var c domain.Company
	err := sqlx.GetContext(ctx, q, &c,
		q.Rebind(`SELECT `+companyColumns+` FROM companies WHERE name = ?`), name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCompanyNotFound
	}
	if err != nil {
		return nil, unavailable("get company by name", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCompanies returns every company ordered by id.
func ListCompanies(ctx context.Context, q Querier) ([]domain.Company, error) {
	var out []domain.Company
	err := sqlx.SelectContext(ctx, q, &out,
		`SELECT `+companyColumns+` FROM companies ORDER BY id`)
	if err != nil {
		return nil, unavailable("list companies", err)
	}
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// CompanyIDs returns the ids of every company in ascending order.
func CompanyIDs(ctx context.Context, q Querier) ([]int64, error) {
	var ids []int64
	if err := sqlx.SelectContext(ctx, q, &ids, `SELECT id FROM companies ORDER BY id`); err != nil {
		return nil, unavailable("list company ids", err)
	}
	return ids, nil
}

// NextCompanyID returns one past the highest id in use, or 1 for an empty
// table. Callers must serialize creation.
func NextCompanyID(ctx context.Context, q Querier) (int64, error) {
	var maxID sql.NullInt64
	if err := sqlx.GetContext(ctx, q, &maxID, `SELECT MAX(id) FROM companies`); err != nil {
		return 0, unavailable("next company id", err)
	}
	if !maxID.Valid {
		return 1, nil
	}
	return maxID.Int64 + 1, nil
}

// CompanyNameExists reports whether a company with the given name exists.
func CompanyNameExists(ctx context.Context, q Querier, name string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, q, &n,
		q.Rebind(`SELECT COUNT(*) FROM companies WHERE name = ?`), name)
	if err != nil {
		return false, unavailable("check company name", err)
	}
	return n > 0, nil
}

// InsertCompany writes a new company row.
func InsertCompany(ctx context.Context, q Querier, c *domain.Company) error {
	_, err := q.ExecContext(ctx, q.Rebind(
		`INSERT INTO companies (`+companyColumns+`) VALUES (?, ?, ?, ?, ?)`),
		c.ID, c.Name, c.Price, c.TotalStocks, c.AvailableStocks)
	if err != nil {
		return unavailable("insert company", err)
	}
	return nil
}

// UpdateCompanyState writes the mutable fields of a company: price and
// available float.
func UpdateCompanyState(ctx context.Context, q Querier, c *domain.Company) error {
	res, err := q.ExecContext(ctx, q.Rebind(
		`UPDATE companies SET price = ?, available_stocks = ? WHERE id = ?`),
		c.Price, c.AvailableStocks, c.ID)
	if err != nil {
		return unavailable("update company", err)
	}
	return expectOne(res, domain.ErrCompanyNotFound)
}

// expectOne returns notFound when res affected no rows.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
