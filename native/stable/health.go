package stable

import "math/big"

// Default risk parameters: 50% of collateral USD value counts toward
// coverage (200% overcollateralization) and liquidators earn a 10% bonus.
const (
	DefaultLiquidationThreshold = 50
	DefaultLiquidationBonus     = 10
)

// RiskParameters groups the construction-time safety limits governing minting
// and liquidation. Percentages are out of 100.
type RiskParameters struct {
	// LiquidationThreshold is the percentage of raw collateral USD value
	// counted toward health-factor coverage.
	LiquidationThreshold uint64
	// LiquidationBonus is the extra percentage of seized collateral awarded to
	// a liquidator beyond the covered debt's USD equivalent.
	LiquidationBonus uint64
}

func (p RiskParameters) withDefaults() RiskParameters {
	if p.LiquidationThreshold == 0 {
		p.LiquidationThreshold = DefaultLiquidationThreshold
	}
	if p.LiquidationBonus == 0 {
		p.LiquidationBonus = DefaultLiquidationBonus
	}
	return p
}

// HealthFactor maps a position's outstanding debt and total collateral USD
// value (both 1e18 fixed-point) to the scaled coverage ratio, where 1e18
// equals 1.0. A position with zero debt is unconditionally safe and reports
// the maximum representable factor. The computation is pure; it is exported
// so external risk monitors can evaluate positions from raw ledger reads.
func (p RiskParameters) HealthFactor(debt, collateralUsd *big.Int) *big.Int {
	if debt == nil || debt.Sign() == 0 {
		return new(big.Int).Set(maxHealthFactor)
	}
	if collateralUsd == nil || collateralUsd.Sign() == 0 {
		return big.NewInt(0)
	}
	adjusted := new(big.Int).Mul(collateralUsd, new(big.Int).SetUint64(p.LiquidationThreshold))
	adjusted.Quo(adjusted, liquidationPrecision)
	adjusted.Mul(adjusted, precision)
	return adjusted.Quo(adjusted, debt)
}

// MinHealthFactor returns the scaled threshold below which a position becomes
// liquidatable.
func MinHealthFactor() *big.Int {
	return new(big.Int).Set(minHealthFactor)
}
