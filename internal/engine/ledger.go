package engine

import (
	"context"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// CompanyLedger owns the companies: creation, lookups, and every price or
// float change. Reads always go to the store.
type CompanyLedger struct {
	db     *store.DB
	locks  *Locks
	model  *PriceModel
	logger *zap.Logger

	createMu sync.Mutex // serializes id assignment and the name check
}

// NewCompanyLedger creates a CompanyLedger.
func NewCompanyLedger(db *store.DB, locks *Locks, model *PriceModel, logger *zap.Logger) *CompanyLedger {
	return &CompanyLedger{db: db, locks: locks, model: model, logger: logger}
}

// Create lists a new company with its whole float available.
func (l *CompanyLedger) Create(ctx context.Context, name string, initialPrice, totalStocks int64) (*domain.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Message: "name is required"}
	}
	if initialPrice < 1 {
		return nil, &domain.ValidationError{Message: "price must be at least 1"}
	}
	if totalStocks <= 0 {
		return nil, &domain.ValidationError{Message: "total_stocks must be positive"}
	}

	l.createMu.Lock()
	defer l.createMu.Unlock()

	var c *domain.Company
	err := l.db.InTx(ctx, func(ctx context.Context, q store.Querier) error {
		exists, err := store.CompanyNameExists(ctx, q, name)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrDuplicateName
		}
		id, err := store.NextCompanyID(ctx, q)
		if err != nil {
			return err
		}
		c = &domain.Company{
			ID:              id,
			Name:            name,
			Price:           initialPrice,
			TotalStocks:     totalStocks,
			AvailableStocks: totalStocks,
		}
		return store.InsertCompany(ctx, q, c)
	})
	if err != nil {
		return nil, err
	}
	l.logger.Info("company created",
		zap.Int64("company_id", c.ID),
		zap.String("name", c.Name),
		zap.Int64("price", c.Price),
		zap.Int64("total_stocks", c.TotalStocks),
	)
	return c, nil
}

// Get returns the company with the given id.
func (l *CompanyLedger) Get(ctx context.Context, id int64) (*domain.Company, error) {
	var c *domain.Company
	err := l.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		c, err = store.GetCompany(ctx, q, id)
		return err
	})
	return c, err
}

// GetByName returns the company with the given name.
func (l *CompanyLedger) GetByName(ctx context.Context, name string) (*domain.Company, error) {
	var c *domain.Company
	err := l.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		c, err = store.GetCompanyByName(ctx, q, name)
		return err
	})
	return c, err
}

// List returns every company ordered by id.
func (l *CompanyLedger) List(ctx context.Context) ([]domain.Company, error) {
	var out []domain.Company
	err := l.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		out, err = store.ListCompanies(ctx, q)
		return err
	})
	return out, err
}

// ApplyTrade moves qty stocks in or out of the available float and
// reprices the company. It does not touch accounts or positions.
func (l *CompanyLedger) ApplyTrade(ctx context.Context, companyID, qty int64, side domain.TradeSide) (*domain.Company, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	return l.mutate(ctx, companyID, func(c *domain.Company) error {
		return l.applyTrade(c, qty, side)
	})
}

// Perturb applies an ambient random drift to one company's price.
func (l *CompanyLedger) Perturb(ctx context.Context, companyID int64) (*domain.Company, error) {
	return l.mutate(ctx, companyID, func(c *domain.Company) error {
		c.Price = l.model.Ambient(c.Price)
		return nil
	})
}

// PerturbRandom perturbs one company picked uniformly at random. It
// returns nil when no company exists.
func (l *CompanyLedger) PerturbRandom(ctx context.Context) (*domain.Company, error) {
	var ids []int64
	err := l.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		ids, err = store.CompanyIDs(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return l.Perturb(ctx, ids[l.model.IntN(len(ids))])
}

// ApplyEvent moves one company's price by pct, e.g. 0.15 for +15%.
func (l *CompanyLedger) ApplyEvent(ctx context.Context, companyID int64, pct float64) (*domain.Company, error) {
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return nil, &domain.ValidationError{Message: "event change must be a finite number"}
	}
	change := decimal.NewFromFloat(pct)
	return l.mutate(ctx, companyID, func(c *domain.Company) error {
		price, err := Shock(c.Price, change)
		if err != nil {
			return err
		}
		c.Price = price
		return nil
	})
}

// mutate runs a read-modify-write on one company under its lock.
func (l *CompanyLedger) mutate(ctx context.Context, companyID int64, fn func(c *domain.Company) error) (*domain.Company, error) {
	unlock := l.locks.Companies.Lock(companyID)
	defer unlock()

	var c *domain.Company
	err := l.db.InTx(ctx, func(ctx context.Context, q store.Querier) (err error) {
		c, err = store.GetCompany(ctx, q, companyID)
		if err != nil {
			return err
		}
		old := c.Price
		if err := fn(c); err != nil {
			return err
		}
		if err := store.UpdateCompanyState(ctx, q, c); err != nil {
			return err
		}
		l.logger.Debug("company repriced",
			zap.Int64("company_id", c.ID),
			zap.Int64("old_price", old),
			zap.Int64("new_price", c.Price),
			zap.Int64("available", c.AvailableStocks),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// applyTrade adjusts c in memory. The caller holds the company lock and
// persists c.
func (l *CompanyLedger) applyTrade(c *domain.Company, qty int64, side domain.TradeSide) error {
	switch side {
	case domain.SideBuy:
		if c.AvailableStocks < qty {
			return domain.ErrInsufficientInventory
		}
		c.AvailableStocks -= qty
		c.Price = l.model.Reprice(c.Price, -qty, c.AvailableStocks, c.TotalStocks)
	case domain.SideSell:
		c.AvailableStocks = min(c.TotalStocks, c.AvailableStocks+qty)
		c.Price = l.model.Reprice(c.Price, qty, c.AvailableStocks, c.TotalStocks)
	default:
		return &domain.ValidationError{Message: "side must be buy or sell"}
	}
	return nil
}
