package stable

import "math/big"

// Ledger quantities are 1e18 fixed-point; oracle readings are rescaled up to
// this precision before any arithmetic. All division floors.
const ledgerDecimals = 18

var (
	precision            = mustBigInt("1000000000000000000") // 1e18
	minHealthFactor      = mustBigInt("1000000000000000000") // 1.0 scaled
	liquidationPrecision = big.NewInt(100)

	// maxHealthFactor is returned for debt-free positions, which are
	// unconditionally safe.
	maxHealthFactor = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
)

func mustBigInt(value string) *big.Int {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		panic("invalid big integer constant")
	}
	return v
}

// pow10 returns 10^n as a big integer.
func pow10(n uint8) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
