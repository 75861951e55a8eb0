package stable

import (
	"fmt"
	"math/big"
	"time"
)

// Normalizer converts between collateral quantities and their 1e18 fixed-point
// USD value using the registered price feeds. Conversions are pure given a
// price reading; no computation proceeds on a stale reading.
type Normalizer struct {
	feeds  map[string]PriceFeed
	maxAge time.Duration
	now    func() time.Time
}

// NewNormalizer binds the per-asset feeds and the staleness bound. A zero
// maxAge disables the freshness check.
func NewNormalizer(feeds map[string]PriceFeed, maxAge time.Duration) *Normalizer {
	cloned := make(map[string]PriceFeed, len(feeds))
	for asset, feed := range feeds {
		cloned[asset] = feed
	}
	return &Normalizer{feeds: cloned, maxAge: maxAge, now: time.Now}
}

// SetClock overrides the wall clock used for staleness checks. Intended for
// deterministic tests.
func (n *Normalizer) SetClock(now func() time.Time) {
	if n == nil || now == nil {
		return
	}
	n.now = now
}

// scaledPrice resolves the asset's latest price rescaled to 1e18 fixed-point.
func (n *Normalizer) scaledPrice(asset string) (*big.Int, error) {
	feed, ok := n.feeds[asset]
	if !ok {
		return nil, ErrUnsupportedAsset
	}
	quote, err := feed.LatestPrice()
	if err != nil {
		return nil, fmt.Errorf("stable engine: price feed %s: %w", asset, err)
	}
	if quote.Price == nil || quote.Price.Sign() <= 0 {
		return nil, ErrInvalidOraclePrice
	}
	if quote.Decimals > ledgerDecimals {
		return nil, ErrOracleDecimals
	}
	if n.maxAge > 0 {
		if quote.Timestamp.IsZero() || n.now().Sub(quote.Timestamp) > n.maxAge {
			return nil, ErrStaleOracle
		}
	}
	return new(big.Int).Mul(quote.Price, pow10(ledgerDecimals-quote.Decimals)), nil
}

// UsdValue returns the 1e18 fixed-point USD value of the given quantity of the
// asset at the current oracle price. Division floors.
func (n *Normalizer) UsdValue(asset string, quantity *big.Int) (*big.Int, error) {
	price, err := n.scaledPrice(asset)
	if err != nil {
		return nil, err
	}
	if quantity == nil {
		return big.NewInt(0), nil
	}
	value := new(big.Int).Mul(quantity, price)
	return value.Quo(value, precision), nil
}

// TokenAmountFromUsd is the inverse of UsdValue: the asset quantity worth the
// given 1e18 fixed-point USD amount. Because division floors, converting a
// value obtained from UsdValue back may return slightly less than the original
// quantity; the bias is always toward the protocol, never the user.
func (n *Normalizer) TokenAmountFromUsd(asset string, usdAmount *big.Int) (*big.Int, error) {
	price, err := n.scaledPrice(asset)
	if err != nil {
		return nil, err
	}
	if usdAmount == nil {
		return big.NewInt(0), nil
	}
	quantity := new(big.Int).Mul(usdAmount, precision)
	return quantity.Quo(quantity, price), nil
}
