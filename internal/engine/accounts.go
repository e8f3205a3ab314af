package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// DefaultRankingLimit is used when Ranking is called with limit <= 0.
const DefaultRankingLimit = 10

// AccountStore manages user cash accounts.
type AccountStore struct {
	db     *store.DB
	locks  *Locks
	logger *zap.Logger
}

// NewAccountStore creates an AccountStore.
func NewAccountStore(db *store.DB, locks *Locks, logger *zap.Logger) *AccountStore {
	return &AccountStore{db: db, locks: locks, logger: logger}
}

// Open creates the account with openingBalance if it does not exist yet.
// An existing account keeps its balance.
func (s *AccountStore) Open(ctx context.Context, userID, openingBalance int64) (*domain.Account, error) {
	if openingBalance < 0 {
		return nil, &domain.ValidationError{Message: "opening balance must not be negative"}
	}
	unlock := s.locks.Accounts.Lock(userID)
	defer unlock()

	var a *domain.Account
	var created bool
	err := s.db.InTx(ctx, func(ctx context.Context, q store.Querier) (err error) {
		created, err = store.InsertAccountIfMissing(ctx, q, userID, openingBalance)
		if err != nil {
			return err
		}
		a, err = store.GetAccount(ctx, q, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if created {
		s.logger.Info("account opened", zap.Int64("user_id", userID), zap.Int64("balance", a.Balance))
	}
	return a, nil
}

// Get returns the account of userID.
func (s *AccountStore) Get(ctx context.Context, userID int64) (*domain.Account, error) {
	var a *domain.Account
	err := s.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		a, err = store.GetAccount(ctx, q, userID)
		return err
	})
	return a, err
}

// Balance returns the balance of userID, or domain.NoAccount with
// domain.ErrAccountNotFound when there is no account.
func (s *AccountStore) Balance(ctx context.Context, userID int64) (int64, error) {
	a, err := s.Get(ctx, userID)
	if err != nil {
		return domain.NoAccount, err
	}
	return a.Balance, nil
}

// Credit adds amount to the balance. Frozen accounts are left unchanged.
func (s *AccountStore) Credit(ctx context.Context, userID, amount int64) (*domain.Account, error) {
	if amount < 0 {
		return nil, &domain.ValidationError{Message: "amount must not be negative"}
	}
	return s.mutate(ctx, userID, func(a *domain.Account) error {
		if a.Frozen {
			return nil
		}
		a.Balance += amount
		return nil
	})
}

// Debit removes amount from the balance. It fails with
// domain.ErrInsufficientFunds when the balance is short or the account is
// frozen; the latter also matches domain.ErrAccountFrozen.
func (s *AccountStore) Debit(ctx context.Context, userID, amount int64) (*domain.Account, error) {
	if amount < 0 {
		return nil, &domain.ValidationError{Message: "amount must not be negative"}
	}
	return s.mutate(ctx, userID, func(a *domain.Account) error {
		if a.Frozen {
			return fmt.Errorf("%w: %w", domain.ErrInsufficientFunds, domain.ErrAccountFrozen)
		}
		if a.Balance < amount {
			return domain.ErrInsufficientFunds
		}
		a.Balance -= amount
		return nil
	})
}

// Freeze sets or clears the frozen flag.
func (s *AccountStore) Freeze(ctx context.Context, userID int64, frozen bool) (*domain.Account, error) {
	a, err := s.mutate(ctx, userID, func(a *domain.Account) error {
		a.Frozen = frozen
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("account freeze changed", zap.Int64("user_id", userID), zap.Bool("frozen", frozen))
	return a, nil
}

// Ranking returns up to limit accounts, richest first.
func (s *AccountStore) Ranking(ctx context.Context, limit int) ([]domain.Account, error) {
	if limit <= 0 {
		limit = DefaultRankingLimit
	}
	var out []domain.Account
	err := s.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		out, err = store.RankAccounts(ctx, q, limit)
		return err
	})
	return out, err
}

func (s *AccountStore) mutate(ctx context.Context, userID int64, fn func(a *domain.Account) error) (*domain.Account, error) {
	unlock := s.locks.Accounts.Lock(userID)
	defer unlock()

	var a *domain.Account
	err := s.db.InTx(ctx, func(ctx context.Context, q store.Querier) (err error) {
		a, err = store.GetAccount(ctx, q, userID)
		if err != nil {
			return err
		}
		if err := fn(a); err != nil {
			return err
		}
		return store.UpdateAccount(ctx, q, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}
