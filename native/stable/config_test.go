package stable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stable.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
PegSymbol = "nusd"
LiquidationThreshold = 50
LiquidationBonus = 10
MaxPriceAgeSeconds = 3600
DataDir = "./data"

[[asset]]
Symbol = "weth"
Feed = "eth-usd"
FeedDecimals = 8
InitialPrice = "200000000000"

[[asset]]
Symbol = "WBTC"
Feed = "btc-usd"
FeedDecimals = 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "NUSD", cfg.PegSymbol)
	require.Len(t, cfg.Assets, 2)
	require.Equal(t, "WETH", cfg.Assets[0].Symbol)
	require.Equal(t, "WBTC", cfg.Assets[1].Symbol)
	require.Equal(t, ":8547", cfg.ListenAddress)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[[asset]]
Symbol = "WETH"
Feed = "eth-usd"
FeedDecimals = 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.EqualValues(t, DefaultLiquidationThreshold, cfg.LiquidationThreshold)
	require.EqualValues(t, DefaultLiquidationBonus, cfg.LiquidationBonus)
	require.NotZero(t, cfg.MaxPriceAgeSeconds)
}

func TestConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no assets", `PegSymbol = "NUSD"`},
		{"missing feed", `
[[asset]]
Symbol = "WETH"
`},
		{"symbol with key separator", `
[[asset]]
Symbol = "WE/TH"
Feed = "eth-usd"
`},
		{"duplicate asset", `
[[asset]]
Symbol = "WETH"
Feed = "eth-usd"

[[asset]]
Symbol = "weth"
Feed = "eth-usd-2"
`},
		{"threshold too high", `
LiquidationThreshold = 101

[[asset]]
Symbol = "WETH"
Feed = "eth-usd"
`},
		{"bonus too high", `
LiquidationBonus = 100

[[asset]]
Symbol = "WETH"
Feed = "eth-usd"
`},
		{"oversized feed decimals", `
[[asset]]
Symbol = "WETH"
Feed = "eth-usd"
FeedDecimals = 19
`},
		{"bad initial price", `
[[asset]]
Symbol = "WETH"
Feed = "eth-usd"
InitialPrice = "not-a-number"
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}
}
