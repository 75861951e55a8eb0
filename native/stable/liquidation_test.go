package stable

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

// setupLiquidation puts a borrower at 10 WETH / 100 nUSD debt and a liquidator
// at 20 WETH / 100 nUSD, then crashes the price so the borrower's health
// factor recomputes to 0.9 while the liquidator stays healthy.
func setupLiquidation(t *testing.T) (*testHarness, borrowerPair) {
	t.Helper()
	h := newTestHarness(t)
	borrower := makeAddress(0x10)
	liquidator := makeAddress(0x20)

	h.weth.SetBalance(borrower, scaled(10))
	if err := h.engine.DepositCollateralAndMint(borrower, "WETH", scaled(10), scaled(100)); err != nil {
		t.Fatalf("borrower setup: %v", err)
	}
	h.weth.SetBalance(liquidator, scaled(20))
	if err := h.engine.DepositCollateralAndMint(liquidator, "WETH", scaled(20), scaled(100)); err != nil {
		t.Fatalf("liquidator setup: %v", err)
	}

	h.feed.SetPrice(feedPrice(18), h.now)
	return h, borrowerPair{borrower: borrower, liquidator: liquidator}
}

type borrowerPair struct {
	borrower   common.Address
	liquidator common.Address
}

func TestLiquidateRejectsHealthyTarget(t *testing.T) {
	h := newTestHarness(t)
	borrower := makeAddress(0x10)
	liquidator := makeAddress(0x20)
	h.weth.SetBalance(borrower, scaled(10))
	if err := h.engine.DepositCollateralAndMint(borrower, "WETH", scaled(10), scaled(100)); err != nil {
		t.Fatalf("borrower setup: %v", err)
	}

	err := h.engine.Liquidate(liquidator, "WETH", borrower, scaled(100))
	if !errors.Is(err, ErrHealthFactorOK) {
		t.Fatalf("expected healthy target rejection, got %v", err)
	}
}

func TestLiquidateRejectsZeroDebtToCover(t *testing.T) {
	h, pair := setupLiquidation(t)
	err := h.engine.Liquidate(pair.liquidator, "WETH", pair.borrower, big.NewInt(0))
	if !errors.Is(err, ErrAmountZero) {
		t.Fatalf("expected zero amount rejection, got %v", err)
	}
}

func TestLiquidateFullPosition(t *testing.T) {
	h, pair := setupLiquidation(t)

	factor, err := h.engine.HealthFactor(pair.borrower)
	if err != nil {
		t.Fatalf("health factor: %v", err)
	}
	// 10 WETH at $18 is 180 USD; 50% threshold over 100 debt gives 0.9.
	wantFactor := new(big.Int).Quo(new(big.Int).Mul(scaled(9), precision), scaled(10))
	if factor.Cmp(wantFactor) != 0 {
		t.Fatalf("unexpected starting factor: %s", factor)
	}

	if err := h.engine.Liquidate(pair.liquidator, "WETH", pair.borrower, scaled(100)); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// 100 USD of debt at $18/WETH is 5.555... WETH (floored), plus a 10%
	// bonus: the liquidator's deterministic payout.
	wantSeized, _ := new(big.Int).SetString("6111111111111111110", 10)
	if got := h.weth.BalanceOf(pair.liquidator); got.Cmp(wantSeized) != 0 {
		t.Fatalf("unexpected liquidator payout: %s", got)
	}

	wantRemaining, _ := new(big.Int).SetString("3888888888888888890", 10)
	remaining, err := h.engine.CollateralBalance(pair.borrower, "WETH")
	if err != nil {
		t.Fatalf("collateral balance: %v", err)
	}
	if remaining.Cmp(wantRemaining) != 0 {
		t.Fatalf("unexpected remaining collateral: %s", remaining)
	}

	debt, _, err := h.engine.AccountInformation(pair.borrower)
	if err != nil {
		t.Fatalf("account information: %v", err)
	}
	if debt.Sign() != 0 {
		t.Fatalf("expected debt cleared, got %s", debt)
	}

	// Liquidation never decreases the target's health factor.
	ending, err := h.engine.HealthFactor(pair.borrower)
	if err != nil {
		t.Fatalf("ending factor: %v", err)
	}
	if ending.Cmp(factor) <= 0 {
		t.Fatalf("expected strict improvement: start=%s end=%s", factor, ending)
	}

	// The liquidator funded the repayment from their own peg balance.
	if got := h.peg.BalanceOf(pair.liquidator); got.Sign() != 0 {
		t.Fatalf("expected liquidator peg balance spent, got %s", got)
	}
}

func TestLiquidateRejectsNonImprovement(t *testing.T) {
	h := newTestHarness(t)
	borrower := makeAddress(0x10)
	liquidator := makeAddress(0x20)

	// Collateral USD equal to debt: removing 1.1x collateral per x debt
	// covered can only worsen the ratio, so the postcondition must fire.
	h.weth.SetBalance(borrower, scaled(1))
	if err := h.engine.DepositCollateralAndMint(borrower, "WETH", scaled(1), scaled(1000)); err != nil {
		t.Fatalf("borrower setup: %v", err)
	}
	h.weth.SetBalance(liquidator, scaled(100))
	if err := h.engine.DepositCollateralAndMint(liquidator, "WETH", scaled(100), scaled(100)); err != nil {
		t.Fatalf("liquidator setup: %v", err)
	}
	h.feed.SetPrice(feedPrice(1000), h.now)

	err := h.engine.Liquidate(liquidator, "WETH", borrower, scaled(100))
	if !errors.Is(err, ErrHealthFactorNotImproved) {
		t.Fatalf("expected non-improvement rejection, got %v", err)
	}

	// Full rollback: borrower untouched.
	debt, _, err := h.engine.AccountInformation(borrower)
	if err != nil {
		t.Fatalf("account information: %v", err)
	}
	if debt.Cmp(scaled(1000)) != 0 {
		t.Fatalf("expected debt unchanged, got %s", debt)
	}
}

func TestLiquidateRollsBackWhenLiquidatorCannotPay(t *testing.T) {
	h, pair := setupLiquidation(t)

	// The liquidator holds less peg token than the debt they offer to cover,
	// so funding the repayment fails after the seizure is staged.
	h.peg.SetBalance(pair.liquidator, scaled(10))

	err := h.engine.Liquidate(pair.liquidator, "WETH", pair.borrower, scaled(100))
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("expected transfer failure, got %v", err)
	}

	remaining, err := h.engine.CollateralBalance(pair.borrower, "WETH")
	if err != nil {
		t.Fatalf("collateral balance: %v", err)
	}
	if remaining.Cmp(scaled(10)) != 0 {
		t.Fatalf("expected collateral unchanged, got %s", remaining)
	}
	debt, _, err := h.engine.AccountInformation(pair.borrower)
	if err != nil {
		t.Fatalf("account information: %v", err)
	}
	if debt.Cmp(scaled(100)) != 0 {
		t.Fatalf("expected debt unchanged, got %s", debt)
	}
}

func TestLiquidateFailsWhenSeizureExceedsHoldings(t *testing.T) {
	h := newTestHarness(t)
	borrower := makeAddress(0x10)
	liquidator := makeAddress(0x20)

	h.weth.SetBalance(borrower, scaled(1))
	if err := h.engine.DepositCollateralAndMint(borrower, "WETH", scaled(1), scaled(1000)); err != nil {
		t.Fatalf("borrower setup: %v", err)
	}
	h.weth.SetBalance(liquidator, scaled(100))
	if err := h.engine.DepositCollateralAndMint(liquidator, "WETH", scaled(100), scaled(1000)); err != nil {
		t.Fatalf("liquidator setup: %v", err)
	}

	// Crash far enough that covering the full debt demands more collateral
	// than the borrower holds. The engine does not clamp; the liquidation
	// fails and the system stays as it is.
	h.feed.SetPrice(feedPrice(500), h.now)

	err := h.engine.Liquidate(liquidator, "WETH", borrower, scaled(1000))
	if !errors.Is(err, ErrInsufficientCollateral) {
		t.Fatalf("expected seizure failure, got %v", err)
	}
}
