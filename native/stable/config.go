package stable

import (
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

// Asset symbols double as segments of the ledger key schema, so anything
// beyond uppercase alphanumerics (the key separator in particular) is
// rejected outright.
var symbolPattern = regexp.MustCompile(`^[A-Z0-9]+$`)

// Config captures the construction-time configuration for the stable module.
// Everything here is fixed once the engine is built; there are no runtime
// mutable parameters.
type Config struct {
	PegSymbol            string        `toml:"PegSymbol"`
	LiquidationThreshold uint64        `toml:"LiquidationThreshold"`
	LiquidationBonus     uint64        `toml:"LiquidationBonus"`
	MaxPriceAgeSeconds   uint64        `toml:"MaxPriceAgeSeconds"`
	DataDir              string        `toml:"DataDir"`
	ListenAddress        string        `toml:"ListenAddress"`
	Assets               []AssetConfig `toml:"asset"`
}

// AssetConfig describes one approved collateral asset and its price feed.
type AssetConfig struct {
	Symbol string `toml:"Symbol"`
	// Feed names the oracle reference backing this asset.
	Feed string `toml:"Feed"`
	// FeedDecimals is the decimal count of the feed's integer price readings.
	FeedDecimals uint8 `toml:"FeedDecimals"`
	// InitialPrice seeds the feed until an operator pushes a fresh quote,
	// expressed in the feed's decimal precision.
	InitialPrice string `toml:"InitialPrice"`
}

// LoadConfig reads, normalizes, and validates a TOML configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("stable config: %w", err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Normalize trims identifiers and applies defaults.
func (c *Config) Normalize() {
	c.PegSymbol = strings.ToUpper(strings.TrimSpace(c.PegSymbol))
	if c.PegSymbol == "" {
		c.PegSymbol = "NUSD"
	}
	if c.LiquidationThreshold == 0 {
		c.LiquidationThreshold = DefaultLiquidationThreshold
	}
	if c.LiquidationBonus == 0 {
		c.LiquidationBonus = DefaultLiquidationBonus
	}
	if c.MaxPriceAgeSeconds == 0 {
		c.MaxPriceAgeSeconds = 3600 * 3
	}
	if c.ListenAddress == "" {
		c.ListenAddress = ":8547"
	}
	for i := range c.Assets {
		c.Assets[i].Symbol = strings.ToUpper(strings.TrimSpace(c.Assets[i].Symbol))
		c.Assets[i].Feed = strings.TrimSpace(c.Assets[i].Feed)
	}
}

// Validate enforces the construction invariants: a non-empty registry with
// unique symbols, a feed for every asset, and sane risk percentages.
func (c Config) Validate() error {
	if len(c.Assets) == 0 {
		return fmt.Errorf("stable config: at least one collateral asset required")
	}
	seen := make(map[string]struct{}, len(c.Assets))
	for _, asset := range c.Assets {
		if asset.Symbol == "" {
			return fmt.Errorf("stable config: asset symbol required")
		}
		if !symbolPattern.MatchString(asset.Symbol) {
			return fmt.Errorf("stable config: asset symbol %q must be alphanumeric", asset.Symbol)
		}
		if _, ok := seen[asset.Symbol]; ok {
			return fmt.Errorf("stable config: duplicate asset %s", asset.Symbol)
		}
		seen[asset.Symbol] = struct{}{}
		if asset.Feed == "" {
			return fmt.Errorf("stable config: asset %s has no price feed", asset.Symbol)
		}
		if asset.FeedDecimals > ledgerDecimals {
			return fmt.Errorf("stable config: asset %s feed decimals exceed %d", asset.Symbol, ledgerDecimals)
		}
		if asset.InitialPrice != "" {
			if _, ok := new(big.Int).SetString(asset.InitialPrice, 10); !ok {
				return fmt.Errorf("stable config: asset %s has invalid initial price", asset.Symbol)
			}
		}
	}
	if c.LiquidationThreshold == 0 || c.LiquidationThreshold > 100 {
		return fmt.Errorf("stable config: liquidation threshold must be within (0, 100]")
	}
	if c.LiquidationBonus >= 100 {
		return fmt.Errorf("stable config: liquidation bonus must be below 100")
	}
	return nil
}
