package stable

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Token is the capability handle for a fungible collateral asset. The engine
// never holds token balances as its own economic asset; custody is a
// pass-through. Implementations report failure through the returned error and
// the engine maps it onto its own taxonomy.
type Token interface {
	// Transfer moves amount from engine custody to the recipient.
	Transfer(to common.Address, amount *big.Int) error
	// TransferFrom moves amount between holders under an allowance the engine
	// has been granted.
	TransferFrom(from, to common.Address, amount *big.Int) error
}

// PegToken extends Token with supply control over the USD-pegged token. The
// engine is the sole holder of this capability.
type PegToken interface {
	Token
	// Mint creates amount for the recipient.
	Mint(to common.Address, amount *big.Int) error
	// Burn destroys amount from engine custody.
	Burn(amount *big.Int) error
}

var (
	errTokenZeroRecipient = errors.New("token: recipient is the zero address")
	errTokenAmount        = errors.New("token: amount must be positive")
	errTokenBalance       = errors.New("token: insufficient balance")
)

// MemoryToken is an in-memory Token/PegToken used by the wiring binary and
// tests. It keeps plain balances; allowances are implicit since the engine is
// the only caller.
type MemoryToken struct {
	mu       sync.Mutex
	custody  common.Address
	balances map[common.Address]*big.Int
}

// NewMemoryToken constructs a token whose custody-scoped operations act on the
// given engine custody address.
func NewMemoryToken(custody common.Address) *MemoryToken {
	return &MemoryToken{custody: custody, balances: make(map[common.Address]*big.Int)}
}

func (t *MemoryToken) balance(addr common.Address) *big.Int {
	if b, ok := t.balances[addr]; ok {
		return b
	}
	b := big.NewInt(0)
	t.balances[addr] = b
	return b
}

func (t *MemoryToken) move(from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errTokenAmount
	}
	src := t.balance(from)
	if src.Cmp(amount) < 0 {
		return errTokenBalance
	}
	src.Sub(src, amount)
	dst := t.balance(to)
	dst.Add(dst, amount)
	return nil
}

func (t *MemoryToken) Transfer(to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(t.custody, to, amount)
}

func (t *MemoryToken) TransferFrom(from, to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.move(from, to, amount)
}

func (t *MemoryToken) Mint(to common.Address, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if to == (common.Address{}) {
		return errTokenZeroRecipient
	}
	if amount == nil || amount.Sign() <= 0 {
		return errTokenAmount
	}
	dst := t.balance(to)
	dst.Add(dst, amount)
	return nil
}

func (t *MemoryToken) Burn(amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if amount == nil || amount.Sign() <= 0 {
		return errTokenAmount
	}
	src := t.balance(t.custody)
	if src.Cmp(amount) < 0 {
		return errTokenBalance
	}
	src.Sub(src, amount)
	return nil
}

// BalanceOf reports the holder's current balance. Intended for wiring and
// tests; the engine itself never reads token balances.
func (t *MemoryToken) BalanceOf(addr common.Address) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return new(big.Int).Set(t.balance(addr))
}

// SetBalance seeds a holder's balance. Intended for wiring and tests.
func (t *MemoryToken) SetBalance(addr common.Address, amount *big.Int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.balances[addr] = new(big.Int).Set(amount)
}
