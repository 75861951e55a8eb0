package stable

import (
	"encoding/hex"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var (
	collateralKeyPrefix = []byte("stable/collateral/")
	debtKeyPrefix       = []byte("stable/debt/")
)

func collateralKey(asset string, user common.Address) []byte {
	sym := strings.ToUpper(strings.TrimSpace(asset))
	addr := hex.EncodeToString(user.Bytes())
	buf := make([]byte, 0, len(collateralKeyPrefix)+len(sym)+1+len(addr))
	buf = append(buf, collateralKeyPrefix...)
	buf = append(buf, sym...)
	buf = append(buf, '/')
	buf = append(buf, addr...)
	return buf
}

func debtKey(user common.Address) []byte {
	addr := hex.EncodeToString(user.Bytes())
	buf := make([]byte, 0, len(debtKeyPrefix)+len(addr))
	buf = append(buf, debtKeyPrefix...)
	buf = append(buf, addr...)
	return buf
}
