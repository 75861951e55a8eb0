package stable

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrNilState                = errors.New("stable engine: ledger not configured")
	ErrAmountZero              = errors.New("stable engine: amount must be positive")
	ErrUnsupportedAsset        = errors.New("stable engine: asset not registered")
	ErrInsufficientCollateral  = errors.New("stable engine: insufficient collateral balance")
	ErrInsufficientDebt        = errors.New("stable engine: burn exceeds outstanding debt")
	ErrTransferFailed          = errors.New("stable engine: token transfer failed")
	ErrMintFailed              = errors.New("stable engine: peg token mint failed")
	ErrBurnFailed              = errors.New("stable engine: peg token burn failed")
	ErrHealthFactorOK          = errors.New("stable engine: position is not liquidatable")
	ErrHealthFactorNotImproved = errors.New("stable engine: liquidation did not improve health factor")
	ErrStaleOracle             = errors.New("stable engine: oracle reading is stale")
	ErrInvalidOraclePrice      = errors.New("stable engine: oracle price must be positive")
	ErrOracleDecimals          = errors.New("stable engine: oracle decimal count exceeds ledger precision")
	ErrReentrant               = errors.New("stable engine: reentrant call rejected")
)

// ErrHealthFactorBroken is the sentinel matched by errors.Is against the typed
// HealthFactorError returned from operations that would leave a position
// undercollateralized.
var ErrHealthFactorBroken = errors.New("stable engine: health factor below minimum")

// HealthFactorError reports the computed factor of the position that failed
// validation so callers can surface it for diagnostics.
type HealthFactorError struct {
	User   common.Address
	Factor *big.Int
}

func (e *HealthFactorError) Error() string {
	return fmt.Sprintf("stable engine: health factor %s below minimum for %s", e.Factor, e.User.Hex())
}

func (e *HealthFactorError) Unwrap() error { return ErrHealthFactorBroken }
