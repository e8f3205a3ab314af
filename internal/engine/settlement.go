package engine

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// TradeSettlement executes buys and sells against the company float. A
// trade is all or nothing: the account, the company and the position are
// written in one transaction under the company and account locks.
type TradeSettlement struct {
	db     *store.DB
	locks  *Locks
	ledger *CompanyLedger
	logger *zap.Logger
	now    func() time.Time
}

// NewTradeSettlement creates a TradeSettlement. A nil now uses time.Now.
func NewTradeSettlement(db *store.DB, locks *Locks, ledger *CompanyLedger, now func() time.Time, logger *zap.Logger) *TradeSettlement {
	if now == nil {
		now = time.Now
	}
	return &TradeSettlement{db: db, locks: locks, ledger: ledger, now: now, logger: logger}
}

// Buy purchases qty stocks of companyID for userID at the current price.
func (s *TradeSettlement) Buy(ctx context.Context, userID, companyID, qty int64) (*domain.TradeResult, error) {
	return s.settle(ctx, domain.SideBuy, userID, companyID, qty)
}

// Sell sells qty stocks of companyID held by userID at the current price.
func (s *TradeSettlement) Sell(ctx context.Context, userID, companyID, qty int64) (*domain.TradeResult, error) {
	return s.settle(ctx, domain.SideSell, userID, companyID, qty)
}

func (s *TradeSettlement) settle(ctx context.Context, side domain.TradeSide, userID, companyID, qty int64) (*domain.TradeResult, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	// Lock order: company, then account.
	unlockCompany := s.locks.Companies.Lock(companyID)
	defer unlockCompany()
	unlockAccount := s.locks.Accounts.Lock(userID)
	defer unlockAccount()

	var result *domain.TradeResult
	err := s.db.InTx(ctx, func(ctx context.Context, q store.Querier) error {
		company, err := store.GetCompany(ctx, q, companyID)
		if err != nil {
			return err
		}
		account, err := store.GetAccount(ctx, q, userID)
		if err != nil {
			return err
		}
		if account.Frozen {
			return domain.ErrAccountFrozen
		}
		held, err := store.GetPosition(ctx, q, userID, companyID)
		if err != nil {
			return err
		}

		price := company.Price
		if qty > math.MaxInt64/price {
			if side == domain.SideBuy {
				return domain.ErrInsufficientFunds
			}
			return &domain.ValidationError{Message: "trade value out of range"}
		}
		total := price * qty

		switch side {
		case domain.SideBuy:
			if account.Balance < total {
				return domain.ErrInsufficientFunds
			}
			if company.AvailableStocks < qty {
				return domain.ErrInsufficientInventory
			}
			account.Balance -= total
			held += qty
		case domain.SideSell:
			if held < qty {
				return domain.ErrInsufficientPosition
			}
			if account.Balance > math.MaxInt64-total {
				return &domain.ValidationError{Message: "balance out of range"}
			}
			account.Balance += total
			held -= qty
		}

		if err := s.ledger.applyTrade(company, qty, side); err != nil {
			return err
		}
		if err := store.UpdateAccount(ctx, q, account); err != nil {
			return err
		}
		if err := store.UpdateCompanyState(ctx, q, company); err != nil {
			return err
		}
		if err := store.SetPosition(ctx, q, userID, companyID, held); err != nil {
			return err
		}

		result = &domain.TradeResult{
			TradeID:         uuid.New().String(),
			Side:            side,
			UserID:          userID,
			CompanyID:       companyID,
			Company:         company.Name,
			Price:           price,
			Quantity:        qty,
			Total:           total,
			Balance:         account.Balance,
			Position:        held,
			NewPrice:        company.Price,
			AvailableStocks: company.AvailableStocks,
			ExecutedAt:      s.now().UTC(),
		}
		return nil
	})
	if err != nil {
		fields := []zap.Field{
			zap.String("side", string(side)),
			zap.Int64("user_id", userID),
			zap.Int64("company_id", companyID),
			zap.Int64("quantity", qty),
			zap.Error(err),
		}
		if domain.IsBusinessRule(err) {
			s.logger.Debug("trade rejected", fields...)
		} else {
			s.logger.Warn("trade failed", fields...)
		}
		return nil, err
	}

	s.logger.Info("trade settled",
		zap.String("trade_id", result.TradeID),
		zap.String("side", string(side)),
		zap.Int64("user_id", userID),
		zap.Int64("company_id", companyID),
		zap.Int64("quantity", qty),
		zap.Int64("price", result.Price),
		zap.Int64("new_price", result.NewPrice),
	)
	return result, nil
}
