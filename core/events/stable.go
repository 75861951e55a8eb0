package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// TypeCollateralDeposited is emitted when collateral enters engine custody.
	TypeCollateralDeposited = "stable.collateral.deposited"
	// TypeCollateralRedeemed is emitted when collateral leaves engine custody,
	// either by redemption or by liquidation seizure.
	TypeCollateralRedeemed = "stable.collateral.redeemed"
	// TypeDebtMinted is emitted when peg tokens are minted against a position.
	TypeDebtMinted = "stable.debt.minted"
	// TypeDebtBurned is emitted when peg tokens are burned against a position.
	TypeDebtBurned = "stable.debt.burned"
	// TypePositionLiquidated is emitted after a successful liquidation.
	TypePositionLiquidated = "stable.position.liquidated"
)

type CollateralDeposited struct {
	User   common.Address
	Asset  string
	Amount *big.Int
}

func (CollateralDeposited) EventType() string { return TypeCollateralDeposited }

type CollateralRedeemed struct {
	From   common.Address
	To     common.Address
	Asset  string
	Amount *big.Int
}

func (CollateralRedeemed) EventType() string { return TypeCollateralRedeemed }

type DebtMinted struct {
	User   common.Address
	Amount *big.Int
}

func (DebtMinted) EventType() string { return TypeDebtMinted }

type DebtBurned struct {
	// OnBehalfOf is the account whose debt was reduced; Payer funded the burn.
	OnBehalfOf common.Address
	Payer      common.Address
	Amount     *big.Int
}

func (DebtBurned) EventType() string { return TypeDebtBurned }

type PositionLiquidated struct {
	Liquidator       common.Address
	User             common.Address
	Asset            string
	DebtCovered      *big.Int
	CollateralSeized *big.Int
}

func (PositionLiquidated) EventType() string { return TypePositionLiquidated }
