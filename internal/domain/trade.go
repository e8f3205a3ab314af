package domain

import "time"

// TradeSide distinguishes buys from sells.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// Valid reports whether s is a known side.
func (s TradeSide) Valid() bool {
	return s == SideBuy || s == SideSell
}

// TradeResult describes a settled trade.
type TradeResult struct {
	TradeID   string
	Side      TradeSide
	UserID    int64
	CompanyID int64
	Company   string
	Price     int64 // realized price, in effect when the trade settled
	Quantity  int64
	Total     int64 // Price * Quantity
	Balance   int64 // account balance after the trade
	Position  int64 // position amount after the trade
	// Company state after repricing.
	NewPrice        int64
	AvailableStocks int64
	ExecutedAt      time.Time
}
