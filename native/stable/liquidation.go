package stable

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nusd/core/events"
)

// Liquidate lets a third party repay part of an unhealthy position's debt in
// exchange for a discounted seizure of its collateral. The transition only
// succeeds if the target starts below the minimum health factor and strictly
// improves; anything else rolls back in full.
//
// Known limitation: the seizure (debt equivalent plus bonus) is not clamped to
// the target's holdings. At or below 100% collateralization it can exceed
// them, the seizure fails, and the system cannot self-heal; liquidators have
// no incentive to act at that point.
func (e *Engine) Liquidate(liquidator common.Address, asset string, user common.Address, debtToCover *big.Int) error {
	return e.run("liquidate", func() error {
		if debtToCover == nil || debtToCover.Sign() <= 0 {
			return ErrAmountZero
		}
		sym, _, err := e.collateralToken(asset)
		if err != nil {
			return err
		}

		startingFactor, err := e.healthFactor(e.ledger, user)
		if err != nil {
			return err
		}
		if startingFactor.Cmp(minHealthFactor) >= 0 {
			return ErrHealthFactorOK
		}

		collateralFromDebt, err := e.normalizer.TokenAmountFromUsd(sym, debtToCover)
		if err != nil {
			return err
		}
		bonus := new(big.Int).Mul(collateralFromDebt, new(big.Int).SetUint64(e.params.LiquidationBonus))
		bonus.Quo(bonus, liquidationPrecision)
		seizure := new(big.Int).Add(collateralFromDebt, bonus)

		tx := e.ledger.Begin()
		// Same primitives as redemption and burning, but targeting a third
		// party: collateral moves from the target to the liquidator, and the
		// target's debt is repaid from the liquidator's balance.
		if _, err := e.redeemInto(tx, user, liquidator, sym, seizure); err != nil {
			return err
		}
		if err := e.burnInto(tx, user, liquidator, debtToCover); err != nil {
			return err
		}

		endingFactor, err := e.healthFactor(tx, user)
		if err != nil {
			return err
		}
		if endingFactor.Cmp(startingFactor) <= 0 {
			return ErrHealthFactorNotImproved
		}

		// The liquidator's own position is untouched by the steps above; this
		// is a safety net since they are also a system participant.
		if err := e.revalidate(tx, liquidator); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}

		e.emitter.Emit(events.PositionLiquidated{
			Liquidator:       liquidator,
			User:             user,
			Asset:            sym,
			DebtCovered:      debtToCover,
			CollateralSeized: seizure,
		})
		if e.metrics != nil {
			e.metrics.RecordLiquidation()
		}
		e.logger.Info("position liquidated",
			"liquidator", liquidator.Hex(), "user", user.Hex(), "asset", sym,
			"debtCovered", debtToCover.String(), "seized", seizure.String(),
			"startingFactor", startingFactor.String(), "endingFactor", endingFactor.String())
		return nil
	})
}
