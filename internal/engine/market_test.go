package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// fixedSource always returns the same draw. f = 0.5 makes every uniform
// draw land on its center.
type fixedSource struct {
	f float64
	n int
}

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) IntN(n int) int   { return s.n % n }

var midpoint = fixedSource{f: 0.5}

// testClock is a manually advanced clock.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testMarket wires every engine component over an in-memory database.
type testMarket struct {
	db         *store.DB
	locks      *Locks
	model      *PriceModel
	clock      *testClock
	ledger     *CompanyLedger
	accounts   *AccountStore
	positions  *PositionStore
	settlement *TradeSettlement
	history    *HistoryStore
}

// fataler is the part of testing.TB that *rapid.T also provides.
type fataler interface {
	Helper()
	Fatalf(format string, args ...any)
}

func openTestDB(tb fataler) *store.DB {
	tb.Helper()
	db, err := store.Open(context.Background(), store.DriverSQLite, ":memory:", 0, zap.NewNop())
	if err != nil {
		tb.Fatalf("open store: %v", err)
	}
	return db
}

// newTestMarket builds a market that is closed when the test ends.
func newTestMarket(tb testing.TB, src RandomSource) *testMarket {
	tb.Helper()
	m := buildTestMarket(tb, src)
	tb.Cleanup(func() { _ = m.db.Close() })
	return m
}

// buildTestMarket builds a market the caller must close.
func buildTestMarket(tb fataler, src RandomSource) *testMarket {
	tb.Helper()
	logger := zap.NewNop()
	db := openTestDB(tb)
	locks := NewLocks()
	model := NewPriceModel(src)
	clock := newTestClock()
	ledger := NewCompanyLedger(db, locks, model, logger)
	return &testMarket{
		db:         db,
		locks:      locks,
		model:      model,
		clock:      clock,
		ledger:     ledger,
		accounts:   NewAccountStore(db, locks, logger),
		positions:  NewPositionStore(db, locks),
		settlement: NewTradeSettlement(db, locks, ledger, clock.Now, logger),
		history:    NewHistoryStore(db, clock.Now, logger),
	}
}

func (m *testMarket) mustCreate(tb fataler, name string, price, total int64) *domain.Company {
	tb.Helper()
	c, err := m.ledger.Create(context.Background(), name, price, total)
	if err != nil {
		tb.Fatalf("create %s: %v", name, err)
	}
	return c
}

func (m *testMarket) mustOpen(tb fataler, userID, balance int64) {
	tb.Helper()
	if _, err := m.accounts.Open(context.Background(), userID, balance); err != nil {
		tb.Fatalf("open account %d: %v", userID, err)
	}
}

func (m *testMarket) mustCompany(tb fataler, id int64) *domain.Company {
	tb.Helper()
	c, err := m.ledger.Get(context.Background(), id)
	if err != nil {
		tb.Fatalf("get company %d: %v", id, err)
	}
	return c
}

func (m *testMarket) mustBalance(tb fataler, userID int64) int64 {
	tb.Helper()
	b, err := m.accounts.Balance(context.Background(), userID)
	if err != nil {
		tb.Fatalf("balance %d: %v", userID, err)
	}
	return b
}

// corrupt writes an invalid available float straight to the store.
func (m *testMarket) corrupt(tb fataler, c *domain.Company) {
	tb.Helper()
	err := m.db.InTx(context.Background(), func(ctx context.Context, q store.Querier) error {
		bad := *c
		bad.AvailableStocks = c.TotalStocks + 1
		return store.UpdateCompanyState(ctx, q, &bad)
	})
	if err != nil {
		tb.Fatalf("corrupt company: %v", err)
	}
}
