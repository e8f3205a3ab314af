package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/engine"
	"github.com/efreitasn/toymarket/internal/store"
)

// DefaultOpeningBalance is credited to every new account unless configured
// otherwise.
const DefaultOpeningBalance int64 = 50000

// Options configures a MarketService.
type Options struct {
	OpeningBalance int64
	Currency       string
	Scheduler      engine.SchedulerConfig
	// Source drives every random draw; nil seeds from the clock.
	Source engine.RandomSource
	// Now is the clock for trades and snapshots; nil uses time.Now.
	Now func() time.Time
	// OnFatal receives corrupt state found by background ticks.
	OnFatal func(error)
}

// PositionView is an owned position with its current market value.
type PositionView struct {
	CompanyID int64
	Company   string
	Amount    int64
	Price     int64
	Value     int64
}

// MarketService is the single entry point for every market operation.
type MarketService struct {
	ledger     *engine.CompanyLedger
	accounts   *engine.AccountStore
	positions  *engine.PositionStore
	settlement *engine.TradeSettlement
	history    *engine.HistoryStore
	scheduler  *engine.MarketScheduler

	openingBalance int64
	currency       string
	logger         *zap.Logger
}

// NewMarketService wires the market components over db.
func NewMarketService(db *store.DB, opts Options, logger *zap.Logger) *MarketService {
	if opts.OpeningBalance < 0 {
		opts.OpeningBalance = DefaultOpeningBalance
	}
	if !domain.ValidCurrency(opts.Currency) {
		opts.Currency = domain.DefaultCurrency
	}

	locks := engine.NewLocks()
	model := engine.NewPriceModel(opts.Source)
	ledger := engine.NewCompanyLedger(db, locks, model, logger)
	history := engine.NewHistoryStore(db, opts.Now, logger)

	return &MarketService{
		ledger:         ledger,
		accounts:       engine.NewAccountStore(db, locks, logger),
		positions:      engine.NewPositionStore(db, locks),
		settlement:     engine.NewTradeSettlement(db, locks, ledger, opts.Now, logger),
		history:        history,
		scheduler:      engine.NewMarketScheduler(opts.Scheduler, history, ledger, model, opts.OnFatal, logger),
		openingBalance: opts.OpeningBalance,
		currency:       opts.Currency,
		logger:         logger,
	}
}

// Currency returns the ISO code money amounts are displayed in.
func (s *MarketService) Currency() string {
	return s.currency
}

// --- Companies ---

// ListCompanies returns every company ordered by id.
func (s *MarketService) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	return s.ledger.List(ctx)
}

// GetCompany resolves ref as a numeric id first, then as a name.
func (s *MarketService) GetCompany(ctx context.Context, ref string) (*domain.Company, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, &domain.ValidationError{Message: "company reference is required"}
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		c, err := s.ledger.Get(ctx, id)
		if !errors.Is(err, domain.ErrCompanyNotFound) {
			return c, err
		}
	}
	return s.ledger.GetByName(ctx, ref)
}

// CreateCompany lists a new company.
func (s *MarketService) CreateCompany(ctx context.Context, name string, price, totalStocks int64) (*domain.Company, error) {
	return s.ledger.Create(ctx, name, price, totalStocks)
}

// ApplyEvent moves the price of the referenced company by pct.
func (s *MarketService) ApplyEvent(ctx context.Context, ref string, pct float64) (*domain.Company, error) {
	c, err := s.GetCompany(ctx, ref)
	if err != nil {
		return nil, err
	}
	updated, err := s.ledger.ApplyEvent(ctx, c.ID, pct)
	if err != nil {
		return nil, err
	}
	s.logger.Info("market event applied",
		zap.Int64("company_id", updated.ID),
		zap.Float64("change", pct),
		zap.Int64("old_price", c.Price),
		zap.Int64("new_price", updated.Price),
	)
	return updated, nil
}

// Seed creates the given companies, skipping names that already exist.
// It returns the number created.
func (s *MarketService) Seed(ctx context.Context, seeds []domain.CompanySeed) (int, error) {
	created := 0
	for _, sd := range seeds {
		_, err := s.ledger.Create(ctx, sd.Name, sd.Price, sd.TotalStocks)
		switch {
		case errors.Is(err, domain.ErrDuplicateName):
			continue
		case err != nil:
			return created, err
		}
		created++
	}
	return created, nil
}

// --- Trading ---

// Buy purchases qty stocks of companyID for userID.
func (s *MarketService) Buy(ctx context.Context, userID, companyID, qty int64) (*domain.TradeResult, error) {
	return s.settlement.Buy(ctx, userID, companyID, qty)
}

// Sell sells qty stocks of companyID held by userID.
func (s *MarketService) Sell(ctx context.Context, userID, companyID, qty int64) (*domain.TradeResult, error) {
	return s.settlement.Sell(ctx, userID, companyID, qty)
}

// Trade dispatches to Buy or Sell.
func (s *MarketService) Trade(ctx context.Context, side domain.TradeSide, userID, companyID, qty int64) (*domain.TradeResult, error) {
	switch side {
	case domain.SideBuy:
		return s.Buy(ctx, userID, companyID, qty)
	case domain.SideSell:
		return s.Sell(ctx, userID, companyID, qty)
	default:
		return nil, &domain.ValidationError{Message: "side must be buy or sell"}
	}
}

// --- Accounts ---

// OpenAccount creates the account with the configured opening balance if
// it does not exist.
func (s *MarketService) OpenAccount(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.accounts.Open(ctx, userID, s.openingBalance)
}

// OpenAccountWithBalance creates the account with openingBalance if it does
// not exist. An existing account keeps its balance.
func (s *MarketService) OpenAccountWithBalance(ctx context.Context, userID, openingBalance int64) (*domain.Account, error) {
	return s.accounts.Open(ctx, userID, openingBalance)
}

// Balance returns the balance of userID, or domain.NoAccount with
// domain.ErrAccountNotFound.
func (s *MarketService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.accounts.Balance(ctx, userID)
}

// Account returns the full account of userID.
func (s *MarketService) Account(ctx context.Context, userID int64) (*domain.Account, error) {
	return s.accounts.Get(ctx, userID)
}

// Freeze sets or clears the frozen flag of an account.
func (s *MarketService) Freeze(ctx context.Context, userID int64, frozen bool) (*domain.Account, error) {
	return s.accounts.Freeze(ctx, userID, frozen)
}

// Ranking returns the richest accounts, at most limit of them.
func (s *MarketService) Ranking(ctx context.Context, limit int) ([]domain.Account, error) {
	return s.accounts.Ranking(ctx, limit)
}

// OwnedPositions lists the non-empty positions of userID valued at
// current prices.
func (s *MarketService) OwnedPositions(ctx context.Context, userID int64) ([]PositionView, error) {
	owned, err := s.positions.Owned(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []PositionView{}, nil
	}
	companies, err := s.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]domain.Company, len(companies))
	for _, c := range companies {
		byID[c.ID] = c
	}

	out := make([]PositionView, 0, len(owned))
	for _, p := range owned {
		c, ok := byID[p.CompanyID]
		if !ok {
			return nil, domain.CorruptStatef("position of user %d references missing company %d", userID, p.CompanyID)
		}
		out = append(out, PositionView{
			CompanyID: p.CompanyID,
			Company:   c.Name,
			Amount:    p.Amount,
			Price:     c.Price,
			Value:     p.Amount * c.Price,
		})
	}
	return out, nil
}

// --- History ---

// History returns price samples in ascending time order. An empty name
// returns every company; an unknown name is domain.ErrCompanyNotFound.
func (s *MarketService) History(ctx context.Context, companyName string) ([]domain.HistoryEntry, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" {
		return s.history.History(ctx, nil)
	}
	c, err := s.ledger.GetByName(ctx, companyName)
	if err != nil {
		return nil, err
	}
	return s.history.History(ctx, &c.ID)
}

// AverageHistory returns the mean sampled price per snapshot.
func (s *MarketService) AverageHistory(ctx context.Context) ([]domain.AverageEntry, error) {
	return s.history.AverageHistory(ctx)
}

// Snapshot records the current price of every company now.
func (s *MarketService) Snapshot(ctx context.Context) (int, error) {
	return s.history.RecordSnapshot(ctx)
}

// --- Scheduler ---

// StartScheduler starts background snapshots and ambient moves. The
// scheduler is not bound to ctx cancellation; stop it with StopScheduler.
func (s *MarketService) StartScheduler(ctx context.Context) error {
	return s.scheduler.Start(context.WithoutCancel(ctx))
}

// StopScheduler stops the background tasks and waits for a running tick.
func (s *MarketService) StopScheduler() {
	s.scheduler.Stop()
}

// SchedulerRunning reports whether the background tasks are running.
func (s *MarketService) SchedulerRunning() bool {
	return s.scheduler.Running()
}
