package stable

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"nusd/storage"
)

// Ledger is the single source of truth for collateral and debt balances. All
// reads and writes pass through its accessors; nothing else touches the
// underlying keys. Entries are zeroed, never deleted, so a key that has been
// written once stays present for the lifetime of the system.
type Ledger struct {
	store storage.Database
}

// NewLedger binds the ledger to its key-value backend.
func NewLedger(store storage.Database) *Ledger {
	return &Ledger{store: store}
}

func (l *Ledger) getAmount(key []byte) (*big.Int, error) {
	raw, err := l.store.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	amount := new(big.Int)
	if err := rlp.DecodeBytes(raw, amount); err != nil {
		return nil, err
	}
	return amount, nil
}

// Collateral returns the deposited quantity of asset held by user. Absent
// entries read as zero.
func (l *Ledger) Collateral(user common.Address, asset string) (*big.Int, error) {
	return l.getAmount(collateralKey(asset, user))
}

// Debt returns the user's outstanding minted-debt quantity in peg-token base
// units. Absent entries read as zero.
func (l *Ledger) Debt(user common.Address) (*big.Int, error) {
	return l.getAmount(debtKey(user))
}

// Begin opens a staged view of the ledger. Mutations accumulate in memory and
// reach the store only on Commit; dropping the Tx discards them, which is how
// failed operations leave zero observable state change.
func (l *Ledger) Begin() *Tx {
	return &Tx{ledger: l, staged: make(map[string]*big.Int)}
}

// Tx is a staged set of ledger mutations. It exposes the same accessors as the
// Ledger so health validation can run against the pending state.
type Tx struct {
	ledger *Ledger
	staged map[string]*big.Int
}

func (tx *Tx) get(key []byte) (*big.Int, error) {
	if amount, ok := tx.staged[string(key)]; ok {
		return new(big.Int).Set(amount), nil
	}
	return tx.ledger.getAmount(key)
}

func (tx *Tx) add(key []byte, amount *big.Int) error {
	current, err := tx.get(key)
	if err != nil {
		return err
	}
	tx.staged[string(key)] = current.Add(current, amount)
	return nil
}

func (tx *Tx) sub(key []byte, amount *big.Int, underflow error) error {
	current, err := tx.get(key)
	if err != nil {
		return err
	}
	if current.Cmp(amount) < 0 {
		return underflow
	}
	tx.staged[string(key)] = current.Sub(current, amount)
	return nil
}

// Collateral reads the pending collateral balance for user.
func (tx *Tx) Collateral(user common.Address, asset string) (*big.Int, error) {
	return tx.get(collateralKey(asset, user))
}

// Debt reads the pending debt balance for user.
func (tx *Tx) Debt(user common.Address) (*big.Int, error) {
	return tx.get(debtKey(user))
}

// AddCollateral stages a collateral increase.
func (tx *Tx) AddCollateral(user common.Address, asset string, amount *big.Int) error {
	return tx.add(collateralKey(asset, user), amount)
}

// SubCollateral stages a collateral decrease, failing with
// ErrInsufficientCollateral if amount exceeds the pending balance.
func (tx *Tx) SubCollateral(user common.Address, asset string, amount *big.Int) error {
	return tx.sub(collateralKey(asset, user), amount, ErrInsufficientCollateral)
}

// AddDebt stages a debt increase.
func (tx *Tx) AddDebt(user common.Address, amount *big.Int) error {
	return tx.add(debtKey(user), amount)
}

// SubDebt stages a debt decrease, failing with ErrInsufficientDebt if amount
// exceeds the pending balance.
func (tx *Tx) SubDebt(user common.Address, amount *big.Int) error {
	return tx.sub(debtKey(user), amount, ErrInsufficientDebt)
}

// Commit flushes every staged entry to the store.
func (tx *Tx) Commit() error {
	for key, amount := range tx.staged {
		encoded, err := rlp.EncodeToBytes(amount)
		if err != nil {
			return err
		}
		if err := tx.ledger.store.Put([]byte(key), encoded); err != nil {
			return err
		}
	}
	return nil
}
