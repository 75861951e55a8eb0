package stable

import (
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nusd/core/events"
	"nusd/observability"
)

// CollateralAsset binds an approved collateral asset to its token handle and
// price feed. The registry built from these entries is fixed at construction.
type CollateralAsset struct {
	Symbol string
	Token  Token
	Feed   PriceFeed
}

// Engine is the mutating API surface of the peg-token system: collateral
// deposits and redemptions, debt minting and burning, and third-party
// liquidation of unhealthy positions. Every operation is atomic; ledger
// writes are staged and committed only after all checks and collaborator
// calls succeed, so a failing operation leaves zero observable state change.
//
// The engine assumes a deterministic execution environment that applies each
// call as one indivisible unit. When an operation returns an error the caller
// must also discard any collaborator side effects of the aborted call.
type Engine struct {
	ledger     *Ledger
	normalizer *Normalizer
	assets     []string
	tokens     map[string]Token
	peg        PegToken
	custody    common.Address
	params     RiskParameters
	emitter    events.Emitter
	logger     *slog.Logger
	metrics    *observability.StableMetrics
	guard      callGuard
}

// NewEngine constructs an engine holding custody at the given address and the
// provided peg-token capability. The asset registry is validated here and
// immutable afterward: every entry needs a unique symbol, a token handle, and
// a price feed.
func NewEngine(custody common.Address, peg PegToken, assets []CollateralAsset, params RiskParameters, maxPriceAge time.Duration) (*Engine, error) {
	if peg == nil {
		return nil, fmt.Errorf("stable engine: peg token capability required")
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("stable engine: at least one collateral asset required")
	}
	ordered := make([]string, 0, len(assets))
	tokens := make(map[string]Token, len(assets))
	feeds := make(map[string]PriceFeed, len(assets))
	for _, asset := range assets {
		sym := strings.ToUpper(strings.TrimSpace(asset.Symbol))
		if sym == "" {
			return nil, fmt.Errorf("stable engine: collateral asset symbol required")
		}
		if _, ok := tokens[sym]; ok {
			return nil, fmt.Errorf("stable engine: duplicate collateral asset %s", sym)
		}
		if asset.Token == nil || asset.Feed == nil {
			return nil, fmt.Errorf("stable engine: asset %s must map to exactly one token and one price feed", sym)
		}
		ordered = append(ordered, sym)
		tokens[sym] = asset.Token
		feeds[sym] = asset.Feed
	}
	return &Engine{
		normalizer: NewNormalizer(feeds, maxPriceAge),
		assets:     ordered,
		tokens:     tokens,
		peg:        peg,
		custody:    custody,
		params:     params.withDefaults(),
		emitter:    events.NoopEmitter{},
		logger:     slog.Default(),
	}, nil
}

// SetLedger wires the engine to its persistence layer.
func (e *Engine) SetLedger(ledger *Ledger) {
	if e == nil {
		return
	}
	e.ledger = ledger
}

// SetEmitter wires the downstream event subscriber.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil || emitter == nil {
		return
	}
	e.emitter = emitter
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(logger *slog.Logger) {
	if e == nil || logger == nil {
		return
	}
	e.logger = logger
}

// SetMetrics wires the operation metrics registry.
func (e *Engine) SetMetrics(metrics *observability.StableMetrics) {
	if e == nil {
		return
	}
	e.metrics = metrics
}

// SetClock overrides the wall clock used for oracle staleness checks.
func (e *Engine) SetClock(now func() time.Time) {
	if e == nil {
		return
	}
	e.normalizer.SetClock(now)
}

// Assets returns the ordered registry of approved collateral asset symbols.
func (e *Engine) Assets() []string {
	if e == nil {
		return nil
	}
	return append([]string(nil), e.assets...)
}

// run wraps a mutating operation with the reentrancy guard and metrics. The
// guard is held for the whole call, including external token-service calls,
// and released on every path.
func (e *Engine) run(op string, fn func() error) error {
	if e == nil || e.ledger == nil {
		return ErrNilState
	}
	if err := e.guard.enter(); err != nil {
		return err
	}
	defer e.guard.exit()
	start := time.Now()
	err := fn()
	if e.metrics != nil {
		e.metrics.RecordOperation(op, start, err)
	}
	if err != nil {
		e.logger.Warn("operation rejected", "op", op, "err", err)
	}
	return err
}

func (e *Engine) collateralToken(asset string) (string, Token, error) {
	sym := strings.ToUpper(strings.TrimSpace(asset))
	token, ok := e.tokens[sym]
	if !ok {
		return "", nil, ErrUnsupportedAsset
	}
	return sym, token, nil
}

// DepositCollateral locks amount of the caller's collateral in engine custody.
func (e *Engine) DepositCollateral(caller common.Address, asset string, amount *big.Int) error {
	return e.run("deposit_collateral", func() error {
		tx := e.ledger.Begin()
		sym, err := e.depositInto(tx, caller, asset, amount)
		if err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.CollateralDeposited{User: caller, Asset: sym, Amount: amount})
		e.logger.Info("collateral deposited", "user", caller.Hex(), "asset", sym, "amount", amount.String())
		return nil
	})
}

// Mint creates amount of peg tokens against the caller's collateral. The
// resulting position must stay above the minimum health factor or the whole
// operation rolls back with a HealthFactorError.
func (e *Engine) Mint(caller common.Address, amount *big.Int) error {
	return e.run("mint", func() error {
		tx := e.ledger.Begin()
		if err := e.mintInto(tx, caller, amount); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.DebtMinted{User: caller, Amount: amount})
		e.logger.Info("debt minted", "user", caller.Hex(), "amount", amount.String())
		return nil
	})
}

// DepositCollateralAndMint composes DepositCollateral and Mint in one atomic
// operation: if either half fails, nothing commits.
func (e *Engine) DepositCollateralAndMint(caller common.Address, asset string, amount, mintAmount *big.Int) error {
	return e.run("deposit_collateral_and_mint", func() error {
		tx := e.ledger.Begin()
		sym, err := e.depositInto(tx, caller, asset, amount)
		if err != nil {
			return err
		}
		if err := e.mintInto(tx, caller, mintAmount); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.CollateralDeposited{User: caller, Asset: sym, Amount: amount})
		e.emitter.Emit(events.DebtMinted{User: caller, Amount: mintAmount})
		e.logger.Info("collateral deposited and debt minted",
			"user", caller.Hex(), "asset", sym, "amount", amount.String(), "minted", mintAmount.String())
		return nil
	})
}

// RedeemCollateral releases amount of the caller's collateral back to them,
// provided the remaining position stays healthy.
func (e *Engine) RedeemCollateral(caller common.Address, asset string, amount *big.Int) error {
	return e.run("redeem_collateral", func() error {
		tx := e.ledger.Begin()
		sym, err := e.redeemInto(tx, caller, caller, asset, amount)
		if err != nil {
			return err
		}
		if err := e.revalidate(tx, caller); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.CollateralRedeemed{From: caller, To: caller, Asset: sym, Amount: amount})
		e.logger.Info("collateral redeemed", "user", caller.Hex(), "asset", sym, "amount", amount.String())
		return nil
	})
}

// Burn destroys amount of the caller's peg tokens and reduces their debt.
// Burning cannot worsen a health factor; the revalidation is a safety net.
func (e *Engine) Burn(caller common.Address, amount *big.Int) error {
	return e.run("burn", func() error {
		tx := e.ledger.Begin()
		if err := e.burnInto(tx, caller, caller, amount); err != nil {
			return err
		}
		if err := e.revalidate(tx, caller); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.DebtBurned{OnBehalfOf: caller, Payer: caller, Amount: amount})
		e.logger.Info("debt burned", "user", caller.Hex(), "amount", amount.String())
		return nil
	})
}

// RedeemCollateralAndBurn composes Burn followed by RedeemCollateral in one
// atomic operation.
func (e *Engine) RedeemCollateralAndBurn(caller common.Address, asset string, redeemAmount, burnAmount *big.Int) error {
	return e.run("redeem_collateral_and_burn", func() error {
		tx := e.ledger.Begin()
		if err := e.burnInto(tx, caller, caller, burnAmount); err != nil {
			return err
		}
		sym, err := e.redeemInto(tx, caller, caller, asset, redeemAmount)
		if err != nil {
			return err
		}
		if err := e.revalidate(tx, caller); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		e.emitter.Emit(events.DebtBurned{OnBehalfOf: caller, Payer: caller, Amount: burnAmount})
		e.emitter.Emit(events.CollateralRedeemed{From: caller, To: caller, Asset: sym, Amount: redeemAmount})
		e.logger.Info("debt burned and collateral redeemed",
			"user", caller.Hex(), "asset", sym, "redeemed", redeemAmount.String(), "burned", burnAmount.String())
		return nil
	})
}

// depositInto stages a collateral increase and pulls the tokens into custody.
// The ledger write precedes the external transfer; both land or neither does.
func (e *Engine) depositInto(tx *Tx, caller common.Address, asset string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() <= 0 {
		return "", ErrAmountZero
	}
	sym, token, err := e.collateralToken(asset)
	if err != nil {
		return "", err
	}
	if err := tx.AddCollateral(caller, sym, amount); err != nil {
		return "", err
	}
	if err := token.TransferFrom(caller, e.custody, amount); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return sym, nil
}

// mintInto stages a debt increase, validates the resulting health factor, and
// only then asks the peg token to mint. The invariant check happens before the
// external call so no tokens exist for an invalid position.
func (e *Engine) mintInto(tx *Tx, caller common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if err := tx.AddDebt(caller, amount); err != nil {
		return err
	}
	if err := e.revalidate(tx, caller); err != nil {
		return err
	}
	if err := e.peg.Mint(caller, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrMintFailed, err)
	}
	return nil
}

// redeemInto stages a collateral decrease on from's position and transfers the
// tokens to the recipient. Liquidation reuses this primitive with a third
// party as recipient; the from position's health is checked by the caller.
func (e *Engine) redeemInto(tx *Tx, from, to common.Address, asset string, amount *big.Int) (string, error) {
	if amount == nil || amount.Sign() <= 0 {
		return "", ErrAmountZero
	}
	sym, token, err := e.collateralToken(asset)
	if err != nil {
		return "", err
	}
	if err := tx.SubCollateral(from, sym, amount); err != nil {
		return "", err
	}
	if err := token.Transfer(to, amount); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return sym, nil
}

// burnInto stages a debt decrease on onBehalfOf's position, funded by the
// payer's peg-token balance: the tokens move into custody and are destroyed.
func (e *Engine) burnInto(tx *Tx, onBehalfOf, payer common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrAmountZero
	}
	if err := tx.SubDebt(onBehalfOf, amount); err != nil {
		return err
	}
	if err := e.peg.TransferFrom(payer, e.custody, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.peg.Burn(amount); err != nil {
		return fmt.Errorf("%w: %v", ErrBurnFailed, err)
	}
	return nil
}

// ledgerView lets health computations run against either the committed ledger
// or a staged transaction.
type ledgerView interface {
	Collateral(user common.Address, asset string) (*big.Int, error)
	Debt(user common.Address) (*big.Int, error)
}

func (e *Engine) accountInformation(view ledgerView, user common.Address) (*big.Int, *big.Int, error) {
	debt, err := view.Debt(user)
	if err != nil {
		return nil, nil, err
	}
	total := big.NewInt(0)
	for _, sym := range e.assets {
		amount, err := view.Collateral(user, sym)
		if err != nil {
			return nil, nil, err
		}
		if amount.Sign() == 0 {
			continue
		}
		value, err := e.normalizer.UsdValue(sym, amount)
		if err != nil {
			return nil, nil, err
		}
		total.Add(total, value)
	}
	return debt, total, nil
}

func (e *Engine) healthFactor(view ledgerView, user common.Address) (*big.Int, error) {
	debt, collateralUsd, err := e.accountInformation(view, user)
	if err != nil {
		return nil, err
	}
	return e.params.HealthFactor(debt, collateralUsd), nil
}

// revalidate enforces the global invariant for user against the pending state.
func (e *Engine) revalidate(view ledgerView, user common.Address) error {
	factor, err := e.healthFactor(view, user)
	if err != nil {
		return err
	}
	if factor.Cmp(minHealthFactor) < 0 {
		return &HealthFactorError{User: user, Factor: factor}
	}
	return nil
}

// HealthFactor reports the user's current scaled health factor. Positions are
// computed on demand, never cached, because price moves make cached values
// stale.
func (e *Engine) HealthFactor(user common.Address) (*big.Int, error) {
	if e == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	return e.healthFactor(e.ledger, user)
}

// AccountInformation reports the user's outstanding debt and the total USD
// value of their collateral across all registered assets at current prices.
func (e *Engine) AccountInformation(user common.Address) (debt, collateralUsd *big.Int, err error) {
	if e == nil || e.ledger == nil {
		return nil, nil, ErrNilState
	}
	return e.accountInformation(e.ledger, user)
}

// CollateralBalance reports the user's deposited quantity of one asset.
func (e *Engine) CollateralBalance(user common.Address, asset string) (*big.Int, error) {
	if e == nil || e.ledger == nil {
		return nil, ErrNilState
	}
	sym, _, err := e.collateralToken(asset)
	if err != nil {
		return nil, err
	}
	return e.ledger.Collateral(user, sym)
}

// UsdValue exposes the price normalizer's quantity-to-USD conversion.
func (e *Engine) UsdValue(asset string, quantity *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, ErrNilState
	}
	sym, _, err := e.collateralToken(asset)
	if err != nil {
		return nil, err
	}
	return e.normalizer.UsdValue(sym, quantity)
}

// TokenAmountFromUsd exposes the price normalizer's USD-to-quantity conversion.
func (e *Engine) TokenAmountFromUsd(asset string, usdAmount *big.Int) (*big.Int, error) {
	if e == nil {
		return nil, ErrNilState
	}
	sym, _, err := e.collateralToken(asset)
	if err != nil {
		return nil, err
	}
	return e.normalizer.TokenAmountFromUsd(sym, usdAmount)
}
