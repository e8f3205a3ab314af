package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/efreitasn/toymarket/internal/domain"
)

func TestCompanyLedger_Create(t *testing.T) {
	m := newTestMarket(t, midpoint)

	a := m.mustCreate(t, "Acme", 100, 1000)
	b := m.mustCreate(t, "Globex", 250, 500)

	if a.ID != 1 || b.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", a.ID, b.ID)
	}
	if a.AvailableStocks != 1000 {
		t.Errorf("expected whole float available, got %d", a.AvailableStocks)
	}

	_, err := m.ledger.Create(context.Background(), "Acme", 10, 10)
	if !errors.Is(err, domain.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}
}

func TestCompanyLedger_Create_Validation(t *testing.T) {
	m := newTestMarket(t, midpoint)
	tests := []struct {
		name  string
		cname string
		price int64
		total int64
	}{
		{"empty name", "  ", 100, 10},
		{"zero price", "Acme", 0, 10},
		{"zero float", "Acme", 100, 0},
		{"negative float", "Acme", 100, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ledger.Create(context.Background(), tt.cname, tt.price, tt.total)
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestCompanyLedger_CreateConcurrentUniqueIDs(t *testing.T) {
	m := newTestMarket(t, midpoint)
	const n = 20

	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := m.ledger.Create(context.Background(), fmt.Sprintf("Co%d", i), 10, 10)
			if err != nil {
				t.Errorf("create: %v", err)
				return
			}
			ids <- c.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("expected %d companies, got %d", n, len(seen))
	}
}

func TestCompanyLedger_Lookups(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	ctx := context.Background()

	c, err := m.ledger.GetByName(ctx, "Acme")
	if err != nil || c.ID != 1 {
		t.Fatalf("GetByName: %v, %+v", err, c)
	}
	if _, err := m.ledger.Get(ctx, 99); !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}
	if _, err := m.ledger.GetByName(ctx, "Nope"); !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}

	list, err := m.ledger.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 1 || list[0].Name != "Acme" {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestCompanyLedger_ApplyTrade(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	ctx := context.Background()

	c, err := m.ledger.ApplyTrade(ctx, 1, 200, domain.SideBuy)
	if err != nil {
		t.Fatalf("buy: %v", err)
	}
	if c.AvailableStocks != 800 || c.Price != 102 {
		t.Fatalf("expected available 800 price 102, got %d %d", c.AvailableStocks, c.Price)
	}

	if _, err := m.ledger.ApplyTrade(ctx, 1, 801, domain.SideBuy); !errors.Is(err, domain.ErrInsufficientInventory) {
		t.Errorf("expected ErrInsufficientInventory, got %v", err)
	}
	if _, err := m.ledger.ApplyTrade(ctx, 1, 0, domain.SideBuy); !errors.Is(err, domain.ErrInvalidQuantity) {
		t.Errorf("expected ErrInvalidQuantity, got %v", err)
	}

	// Sells never push the float past its total.
	c, err = m.ledger.ApplyTrade(ctx, 1, 500, domain.SideSell)
	if err != nil {
		t.Fatalf("sell: %v", err)
	}
	if c.AvailableStocks != 1000 {
		t.Errorf("expected available capped at 1000, got %d", c.AvailableStocks)
	}

	stored := m.mustCompany(t, 1)
	if *stored != *c {
		t.Errorf("stored %+v differs from returned %+v", stored, c)
	}
}

func TestCompanyLedger_Perturb(t *testing.T) {
	m := newTestMarket(t, fixedSource{f: 0, n: 1})
	m.mustCreate(t, "Acme", 100, 1000)
	m.mustCreate(t, "Globex", 200, 1000)
	ctx := context.Background()

	c, err := m.ledger.Perturb(ctx, 1)
	if err != nil {
		t.Fatalf("Perturb: %v", err)
	}
	if c.Price != 98 {
		t.Errorf("expected 98, got %d", c.Price)
	}

	// IntN always returns index 1, the second company.
	c, err = m.ledger.PerturbRandom(ctx)
	if err != nil {
		t.Fatalf("PerturbRandom: %v", err)
	}
	if c.ID != 2 || c.Price != 196 {
		t.Errorf("expected company 2 at 196, got %d at %d", c.ID, c.Price)
	}

	if _, err := m.ledger.Perturb(ctx, 42); !errors.Is(err, domain.ErrCompanyNotFound) {
		t.Errorf("expected ErrCompanyNotFound, got %v", err)
	}
}

func TestCompanyLedger_PerturbRandomEmpty(t *testing.T) {
	m := newTestMarket(t, midpoint)
	c, err := m.ledger.PerturbRandom(context.Background())
	if err != nil || c != nil {
		t.Fatalf("expected nil, nil; got %+v, %v", c, err)
	}
}

func TestCompanyLedger_ApplyEvent(t *testing.T) {
	m := newTestMarket(t, midpoint)
	m.mustCreate(t, "Acme", 100, 1000)
	ctx := context.Background()

	c, err := m.ledger.ApplyEvent(ctx, 1, 0.15)
	if err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}
	if c.Price != 115 {
		t.Errorf("expected 115, got %d", c.Price)
	}

	for _, pct := range []float64{-1, 1e17, 1e30, math.NaN(), math.Inf(1)} {
		var ve *domain.ValidationError
		if _, err := m.ledger.ApplyEvent(ctx, 1, pct); !errors.As(err, &ve) {
			t.Errorf("pct=%v: expected ValidationError, got %v", pct, err)
		}
		if got := m.mustCompany(t, 1).Price; got != 115 {
			t.Errorf("pct=%v: rejected event changed price to %d", pct, got)
		}
	}
}

func TestCompanyLedger_CorruptRow(t *testing.T) {
	m := newTestMarket(t, midpoint)
	c := m.mustCreate(t, "Acme", 100, 1000)
	m.corrupt(t, c)

	if _, err := m.ledger.Get(context.Background(), c.ID); !errors.Is(err, domain.ErrCorruptState) {
		t.Fatalf("expected ErrCorruptState, got %v", err)
	}
}
