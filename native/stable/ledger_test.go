package stable

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"nusd/storage"
)

func TestLedgerZeroOnAbsent(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	user := makeAddress(0x10)

	balance, err := ledger.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	debt, err := ledger.Debt(user)
	require.NoError(t, err)
	require.Zero(t, debt.Sign())
}

func TestLedgerTxCommit(t *testing.T) {
	store := storage.NewMemDB()
	ledger := NewLedger(store)
	user := makeAddress(0x10)

	tx := ledger.Begin()
	require.NoError(t, tx.AddCollateral(user, "WETH", scaled(5)))
	require.NoError(t, tx.AddDebt(user, scaled(100)))

	// Staged values are visible within the transaction...
	pending, err := tx.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, pending.Cmp(scaled(5)))

	// ...but not outside it until committed.
	committed, err := ledger.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, committed.Sign())

	require.NoError(t, tx.Commit())

	committed, err = ledger.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, committed.Cmp(scaled(5)))

	debt, err := ledger.Debt(user)
	require.NoError(t, err)
	require.Zero(t, debt.Cmp(scaled(100)))
}

func TestLedgerTxDiscard(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	user := makeAddress(0x10)

	tx := ledger.Begin()
	require.NoError(t, tx.AddCollateral(user, "WETH", scaled(5)))
	// Dropped without commit.

	balance, err := ledger.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestLedgerTxUnderflow(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	user := makeAddress(0x10)

	tx := ledger.Begin()
	require.NoError(t, tx.AddCollateral(user, "WETH", scaled(1)))
	require.ErrorIs(t, tx.SubCollateral(user, "WETH", scaled(2)), ErrInsufficientCollateral)
	require.ErrorIs(t, tx.SubDebt(user, big.NewInt(1)), ErrInsufficientDebt)
}

func TestLedgerZeroedEntryStaysPresent(t *testing.T) {
	store := storage.NewMemDB()
	ledger := NewLedger(store)
	user := makeAddress(0x10)

	tx := ledger.Begin()
	require.NoError(t, tx.AddCollateral(user, "WETH", scaled(3)))
	require.NoError(t, tx.SubCollateral(user, "WETH", scaled(3)))
	require.NoError(t, tx.Commit())

	// The key exists in the store holding an explicit zero.
	raw, err := store.Get(collateralKey("WETH", user))
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	balance, err := ledger.Collateral(user, "WETH")
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}

func TestLedgerKeysSeparateAssetsAndUsers(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	alice := makeAddress(0x10)
	bob := makeAddress(0x11)

	tx := ledger.Begin()
	require.NoError(t, tx.AddCollateral(alice, "WETH", scaled(1)))
	require.NoError(t, tx.AddCollateral(alice, "WBTC", scaled(2)))
	require.NoError(t, tx.AddCollateral(bob, "WETH", scaled(3)))
	require.NoError(t, tx.Commit())

	got, err := ledger.Collateral(alice, "WETH")
	require.NoError(t, err)
	require.Zero(t, got.Cmp(scaled(1)))

	got, err = ledger.Collateral(alice, "WBTC")
	require.NoError(t, err)
	require.Zero(t, got.Cmp(scaled(2)))

	got, err = ledger.Collateral(bob, "WETH")
	require.NoError(t, err)
	require.Zero(t, got.Cmp(scaled(3)))
}
