package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/efreitasn/toymarket/internal/domain"
)

func TestAccountStore_OpenIdempotent(t *testing.T) {
	m := newTestMarket(t, midpoint)
	ctx := context.Background()

	a, err := m.accounts.Open(ctx, 1, 50000)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if a.Balance != 50000 || a.Frozen {
		t.Fatalf("unexpected account: %+v", a)
	}
	if _, err := m.accounts.Debit(ctx, 1, 1000); err != nil {
		t.Fatalf("Debit: %v", err)
	}

	a, err = m.accounts.Open(ctx, 1, 50000)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if a.Balance != 49000 {
		t.Errorf("reopen reset balance to %d", a.Balance)
	}

	var ve *domain.ValidationError
	if _, err := m.accounts.Open(ctx, 2, -1); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestAccountStore_BalanceMissing(t *testing.T) {
	m := newTestMarket(t, midpoint)
	b, err := m.accounts.Balance(context.Background(), 404)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if b != domain.NoAccount {
		t.Errorf("expected NoAccount, got %d", b)
	}
}

func TestAccountStore_CreditDebit(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustOpen(t, 1, 100)
	ctx := context.Background()

	if _, err := m.accounts.Credit(ctx, 1, 50); err != nil {
		t.Fatalf("Credit: %v", err)
	}
	_, err := m.accounts.Debit(ctx, 1, 151)
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
	if errors.Is(err, domain.ErrAccountFrozen) {
		t.Error("unfrozen debit must not report ErrAccountFrozen")
	}
	a, err := m.accounts.Debit(ctx, 1, 150)
	if err != nil {
		t.Fatalf("Debit: %v", err)
	}
	if a.Balance != 0 {
		t.Errorf("expected 0, got %d", a.Balance)
	}

	var ve *domain.ValidationError
	if _, err := m.accounts.Credit(ctx, 1, -1); !errors.As(err, &ve) {
		t.Errorf("expected ValidationError, got %v", err)
	}
	if _, err := m.accounts.Credit(ctx, 9, 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := m.accounts.Debit(ctx, 9, 1); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStore_Frozen(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustOpen(t, 1, 100)
	ctx := context.Background()

	a, err := m.accounts.Freeze(ctx, 1, true)
	if err != nil || !a.Frozen {
		t.Fatalf("Freeze: %v, %+v", err, a)
	}

	a, err = m.accounts.Credit(ctx, 1, 50)
	if err != nil {
		t.Fatalf("Credit on frozen: %v", err)
	}
	if a.Balance != 100 {
		t.Errorf("credit changed frozen balance to %d", a.Balance)
	}

	_, err = m.accounts.Debit(ctx, 1, 10)
	if !errors.Is(err, domain.ErrInsufficientFunds) || !errors.Is(err, domain.ErrAccountFrozen) {
		t.Errorf("expected both ErrInsufficientFunds and ErrAccountFrozen, got %v", err)
	}
	if got := m.mustBalance(t, 1); got != 100 {
		t.Errorf("frozen balance changed to %d", got)
	}

	if _, err := m.accounts.Freeze(ctx, 1, false); err != nil {
		t.Fatalf("unfreeze: %v", err)
	}
	if _, err := m.accounts.Debit(ctx, 1, 10); err != nil {
		t.Errorf("debit after unfreeze: %v", err)
	}
	if _, err := m.accounts.Freeze(ctx, 2, true); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAccountStore_Ranking(t *testing.T) {
	m := newTestMarket(t, midpoint)
	for id := int64(1); id <= 12; id++ {
		m.mustOpen(t, id, id*100)
	}
	m.mustOpen(t, 13, 1200) // ties with user 12
	ctx := context.Background()

	top, err := m.accounts.Ranking(ctx, 0)
	if err != nil {
		t.Fatalf("Ranking: %v", err)
	}
	if len(top) != DefaultRankingLimit {
		t.Fatalf("expected %d entries, got %d", DefaultRankingLimit, len(top))
	}
	if top[0].UserID != 12 || top[1].UserID != 13 {
		t.Errorf("expected 12 then 13 on tie, got %d then %d", top[0].UserID, top[1].UserID)
	}
	for i := 1; i < len(top); i++ {
		if top[i].Balance > top[i-1].Balance {
			t.Fatalf("ranking not descending at %d", i)
		}
	}

	top, err = m.accounts.Ranking(ctx, 3)
	if err != nil || len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d (%v)", len(top), err)
	}
}
