package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// HistoryEntry is a point sample of one company's price. Entries written by
// the same snapshot share the same Timestamp.
type HistoryEntry struct {
	ID          int64  `db:"id"`
	Timestamp   int64  `db:"ts"` // unix milliseconds
	CompanyID   int64  `db:"company_id"`
	CompanyName string `db:"company_name"`
	Price       int64  `db:"price"`
}

// Time returns the entry timestamp as a time.Time in UTC.
func (e *HistoryEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// AverageEntry is the mean price across all companies sampled at one
// timestamp.
type AverageEntry struct {
	Timestamp int64
	MeanPrice decimal.Decimal
	Samples   int
}
