package engine

import (
	"context"
	"time"

	"github.com/google/btree"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/domain"
	"github.com/efreitasn/toymarket/internal/store"
)

// HistoryStore records and reads price snapshots.
type HistoryStore struct {
	db     *store.DB
	now    func() time.Time
	logger *zap.Logger
}

// NewHistoryStore creates a HistoryStore. A nil now uses time.Now.
func NewHistoryStore(db *store.DB, now func() time.Time, logger *zap.Logger) *HistoryStore {
	if now == nil {
		now = time.Now
	}
	return &HistoryStore{db: db, now: now, logger: logger}
}

// RecordSnapshot samples every company's current price under one shared
// timestamp and returns the number of entries written.
func (h *HistoryStore) RecordSnapshot(ctx context.Context) (int, error) {
	ts := h.now().UnixMilli()
	var n int
	err := h.db.InTx(ctx, func(ctx context.Context, q store.Querier) error {
		companies, err := store.ListCompanies(ctx, q)
		if err != nil {
			return err
		}
		entries := make([]domain.HistoryEntry, 0, len(companies))
		for _, c := range companies {
			entries = append(entries, domain.HistoryEntry{
				Timestamp:   ts,
				CompanyID:   c.ID,
				CompanyName: c.Name,
				Price:       c.Price,
			})
		}
		n = len(entries)
		return store.InsertHistory(ctx, q, entries)
	})
	if err != nil {
		return 0, err
	}
	h.logger.Debug("snapshot recorded", zap.Int64("ts", ts), zap.Int("entries", n))
	return n, nil
}

// History returns entries in ascending time order, optionally for one
// company only.
func (h *HistoryStore) History(ctx context.Context, companyID *int64) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	err := h.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		out, err = store.ListHistory(ctx, q, companyID)
		return err
	})
	return out, err
}

type priceBucket struct {
	ts    int64
	sum   decimal.Decimal
	count int
}

func bucketLess(a, b *priceBucket) bool {
	return a.ts < b.ts
}

// AverageHistory returns, per snapshot timestamp, the mean price across all
// companies sampled at that instant, in ascending time order.
func (h *HistoryStore) AverageHistory(ctx context.Context) ([]domain.AverageEntry, error) {
	var points []store.PricePoint
	err := h.db.Read(ctx, func(ctx context.Context, q store.Querier) (err error) {
		points, err = store.ListPricePoints(ctx, q)
		return err
	})
	if err != nil {
		return nil, err
	}

	const degree = 32
	buckets := btree.NewG[*priceBucket](degree, bucketLess)
	for _, p := range points {
		b, ok := buckets.Get(&priceBucket{ts: p.Timestamp})
		if !ok {
			b = &priceBucket{ts: p.Timestamp}
			buckets.ReplaceOrInsert(b)
		}
		b.sum = b.sum.Add(decimal.NewFromInt(p.Price))
		b.count++
	}

	out := make([]domain.AverageEntry, 0, buckets.Len())
	buckets.Ascend(func(b *priceBucket) bool {
		out = append(out, domain.AverageEntry{
			Timestamp: b.ts,
			MeanPrice: b.sum.Div(decimal.NewFromInt(int64(b.count))),
			Samples:   b.count,
		})
		return true
	})
	return out, nil
}
