package engine

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/toymarket/internal/domain"
)

// Price model coefficients.
var (
	scarcityFactor = decimal.NewFromFloat(0.01)
	demandFactor   = decimal.NewFromFloat(0.1)
	minPrice       = decimal.NewFromInt(1)
	maxPrice       = decimal.NewFromInt(math.MaxInt64)
)

const (
	noiseHalfWidth   = 0.05
	trendHalfWidth   = 0.01
	ambientHalfWidth = 0.02
)

// RandomSource supplies the model's randomness.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
	// IntN returns a value in [0, n).
	IntN(n int) int
}

// NewRandomSource returns a PCG-backed source seeded with seed.
func NewRandomSource(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// PriceModel computes price changes after trades, ambient moves and
// events. It is safe for concurrent use.
type PriceModel struct {
	mu  sync.Mutex
	src RandomSource
}

// NewPriceModel creates a model drawing from src. A nil src is seeded from
// the clock.
func NewPriceModel(src RandomSource) *PriceModel {
	if src == nil {
		src = NewRandomSource(uint64(time.Now().UnixNano()))
	}
	return &PriceModel{src: src}
}

func (m *PriceModel) float64() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src.Float64()
}

// uniform draws from [center-halfWidth, center+halfWidth).
func (m *PriceModel) uniform(center, halfWidth float64) decimal.Decimal {
	u := m.float64()
	return decimal.NewFromFloat(center + (2*u-1)*halfWidth)
}

// IntN draws an index in [0, n).
func (m *PriceModel) IntN(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src.IntN(n)
}

// Delay draws a duration in [lo, hi].
func (m *PriceModel) Delay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(m.float64()*float64(hi-lo))
}

// Reprice returns the price after a trade changed the available float by
// deltaAvail, leaving available out of total. The result stays within
// [1, math.MaxInt64].
func (m *PriceModel) Reprice(price, deltaAvail, available, total int64) int64 {
	p := decimal.NewFromInt(price)
	t := decimal.NewFromInt(total)

	scarcity := decimal.NewFromInt(1).Add(
		t.Sub(decimal.NewFromInt(available)).Div(t).Mul(scarcityFactor))
	demand := decimal.NewFromInt(1).Sub(
		decimal.NewFromInt(deltaAvail).Div(t).Mul(demandFactor))
	noise := m.uniform(1, noiseHalfWidth)
	trend := m.uniform(1, trendHalfWidth)

	price, _ = settlePrice(p.Mul(scarcity).Mul(demand).Mul(noise).Mul(trend))
	return price
}

// Ambient returns the price after a small random drift.
func (m *PriceModel) Ambient(price int64) int64 {
	drift := m.uniform(0, ambientHalfWidth)
	price, _ = settlePrice(decimal.NewFromInt(price).Mul(decimal.NewFromInt(1).Add(drift)))
	return price
}

// Shock returns the price after an event moving it by pct, e.g. -0.2 for a
// 20% drop. pct must be greater than -1 and must not push the price past
// math.MaxInt64.
func Shock(price int64, pct decimal.Decimal) (int64, error) {
	one := decimal.NewFromInt(1)
	if pct.LessThanOrEqual(one.Neg()) {
		return 0, &domain.ValidationError{Message: "event change must be greater than -100%"}
	}
	settled, ok := settlePrice(decimal.NewFromInt(price).Mul(one.Add(pct)))
	if !ok {
		return 0, &domain.ValidationError{Message: "event change moves the price out of range"}
	}
	return settled, nil
}

// settlePrice rounds half away from zero and keeps the result within
// [1, math.MaxInt64]. ok is false when raw had to be capped at the top.
func settlePrice(raw decimal.Decimal) (price int64, ok bool) {
	rounded := raw.Round(0)
	if rounded.LessThan(minPrice) {
		return 1, true
	}
	if rounded.GreaterThan(maxPrice) {
		return math.MaxInt64, false
	}
	return rounded.IntPart(), true
}
