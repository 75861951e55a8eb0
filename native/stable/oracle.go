package stable

import (
	"math/big"
	"sync"
	"time"
)

// PriceQuote is a single oracle observation for a collateral asset: a signed
// integer price with a fixed decimal count, plus the observation timestamp
// used for freshness checks.
type PriceQuote struct {
	Price     *big.Int
	Decimals  uint8
	Timestamp time.Time
}

// Clone returns a deep copy of the quote to prevent accidental mutations.
func (q PriceQuote) Clone() PriceQuote {
	clone := PriceQuote{Decimals: q.Decimals, Timestamp: q.Timestamp}
	if q.Price != nil {
		clone.Price = new(big.Int).Set(q.Price)
	}
	return clone
}

// PriceFeed resolves the latest USD price observation for one collateral
// asset. The feed's data source is external; the engine only checks that the
// reading is fresh enough before acting on it.
type PriceFeed interface {
	LatestPrice() (PriceQuote, error)
}

// StaticFeed is a PriceFeed whose quote is pushed by an operator or test. It
// is the reference implementation used by the wiring binary until a live
// oracle adapter replaces it.
type StaticFeed struct {
	mu    sync.RWMutex
	quote PriceQuote
}

// NewStaticFeed constructs a feed seeded with the given observation.
func NewStaticFeed(price *big.Int, decimals uint8, observed time.Time) *StaticFeed {
	return &StaticFeed{quote: PriceQuote{Price: price, Decimals: decimals, Timestamp: observed}.Clone()}
}

// SetPrice replaces the feed's observation, keeping the decimal count.
func (f *StaticFeed) SetPrice(price *big.Int, observed time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quote.Price = new(big.Int).Set(price)
	f.quote.Timestamp = observed
}

// LatestPrice implements the PriceFeed interface.
func (f *StaticFeed) LatestPrice() (PriceQuote, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.quote.Clone(), nil
}
