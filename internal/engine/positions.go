package engine

import (
	"context"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// PositionStore manages stock holdings. Changes to a user's positions are
// serialized by that user's account lock.
type PositionStore struct {
	db    *store.DB
	locks *Locks
}

// NewPositionStore creates a PositionStore.
func NewPositionStore(db *store.DB, locks *Locks) *PositionStore {
	return &PositionStore{db: db, locks: locks}
}

// Get returns the amount of companyID held by userID, 0 when none.
func (s *PositionStore) Get(ctx context.Context, userID, companyID int64) (int64, error) {
	var amount int64
	err := s.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		amount, err = store.GetPosition(ctx, q, userID, companyID)
		return err
	})
	return amount, err
}

// Owned lists the positions of userID with a positive amount, ordered by
// company id.
func (s *PositionStore) Owned(ctx context.Context, userID int64) ([]domain.Position, error) {
	var out []domain.Position
	err := s.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		out, err = store.OwnedPositions(ctx, q, userID)
		return err
	})
	return out, err
}

// Increase adds qty to the position and returns the new amount.
func (s *PositionStore) Increase(ctx context.Context, userID, companyID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return s.adjust(ctx, userID, companyID, qty)
}

// Decrease removes qty from the position and returns the new amount.
func (s *PositionStore) Decrease(ctx context.Context, userID, companyID, qty int64) (int64, error) {
	if qty <= 0 {
		return 0, domain.ErrInvalidQuantity
	}
	return s.adjust(ctx, userID, companyID, -qty)
}

func (s *PositionStore) adjust(ctx context.Context, userID, companyID, delta int64) (int64, error) {
	unlock := s.locks.Accounts.Lock(userID)
	defer unlock()

	var amount int64
	err := s.db.InTx(ctx, func(ctx context.Context, q store.Querier) (err error) {
		amount, err = store.GetPosition(ctx, q, userID, companyID)
		if err != nil {
			return err
		}
		if amount+delta < 0 {
			return domain.ErrInsufficientPosition
		}
		amount += delta
		return store.SetPosition(ctx, q, userID, companyID, amount)
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}
