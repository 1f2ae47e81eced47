// Package config holds the per-deployment pricing configuration: the
// reference token, stablecoin set, whitelist, and the stable pool used
// as the USD oracle. Defaults target Ethereum mainnet; other
// deployments load a JSON file with the same shape.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// PoolPolicy controls how the processor treats swaps on a pool.
type PoolPolicy string

const (
	// PolicyNormal processes the pool's swaps as usual.
	PolicyNormal PoolPolicy = "normal"
	// PolicyDeny drops the pool's swaps entirely, leaving no trace in
	// any aggregate. Used for pools with broken token contracts.
	PolicyDeny PoolPolicy = "deny"
)

// Config is the pricing configuration for one deployment.
type Config struct {
	// FactoryAddress keys the singleton factory row.
	FactoryAddress string `json:"factory_address"`

	// ReferenceToken is the token every price is derived through
	// (WETH on mainnet). Its derivedETH is 1 by definition.
	ReferenceToken string `json:"reference_token"`

	// StableCoins are tokens whose derivedETH is taken straight from
	// the current ETH price rather than from a pool walk.
	StableCoins []string `json:"stable_coins"`

	// WhitelistTokens are tokens trusted for volume tracking and as
	// counter-assets in the derivedETH walk.
	WhitelistTokens []string `json:"whitelist_tokens"`

	// StablePool is the pool read for the USD price of the reference
	// token. StableIsToken0 says which side of it the stablecoin is on.
	StablePool     string `json:"stable_pool"`
	StableIsToken0 bool   `json:"stable_is_token0"`

	// MinimumEthLocked is the reference-token liquidity a whitelist
	// pool must hold before it can price a token.
	MinimumEthLocked decimal.Decimal `json:"minimum_eth_locked"`

	// PoolOverrides maps pool addresses to non-default policies.
	PoolOverrides map[string]PoolPolicy `json:"pool_overrides"`

	// TokenBucketPricing enables USD price and OHLC fields on token
	// day and hour buckets. Off by default: the upstream data this
	// pipeline is reconciled against leaves them zero.
	TokenBucketPricing bool `json:"token_bucket_pricing"`

	stableSet    map[string]struct{}
	whitelistSet map[string]struct{}
}

// Mainnet returns the Ethereum mainnet configuration.
func Mainnet() *Config {
	cfg := &Config{
		FactoryAddress: "0x1f98431c8ad98523631ae4a59f267346ea31f984",
		ReferenceToken: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
		StableCoins: []string{
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x4dd28568d05f09b02220b09c2cb307bfd837cb95", // PRINTS
		},
		WhitelistTokens: []string{
			"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", // WETH
			"0x6b175474e89094c44da98b954eedeac495271d0f", // DAI
			"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", // USDC
			"0xdac17f958d2ee523a2206206994597c13d831ec7", // USDT
			"0x0000000000085d4780b73119b644ae5ecd22b376", // TUSD
			"0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", // WBTC
			"0x5d3a536e4d6dbd6114cc1ead35777bab948e3643", // cDAI
			"0x39aa39c021dfbae8fac545936693ac917d5e7563", // cUSDC
			"0x86fadb80d8d2cff3c3680819e4da99c10232ba0f", // EBASE
			"0x57ab1ec28d129707052df4df418d58a2d46d5f51", // sUSD
			"0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2", // MKR
			"0xc00e94cb662c3520282e6f5717214004a7f26888", // COMP
			"0x514910771af9ca656af840dff83e8264ecf986ca", // LINK
			"0xc011a73ee8576fb46f5e1c5751ca3b9fe0af2a6f", // SNX
			"0x0bc529c00c6401aef6d220be8c6ea1667f6ad93e", // YFI
			"0x111111111117dc0aa78b770fa6a738034120c302", // 1INCH
			"0xdf5e0e81dff6faf3a7e52ba697820c5e32d806a8", // yCurv
			"0x956f47f50a910163d8bf957cf5846d573e7f87ca", // FEI
			"0x7d1afa7b718fb893db30a3abc0cfc608aacfebb0", // MATIC
			"0x7fc66500c84a76ad7e9c93437bfc5ac33e2ddae9", // AAVE
			"0xfe2e637202056d30016725477c5da089ab0a043a", // sETH2
		},
		StablePool:       "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640", // USDC/WETH 0.05%
		StableIsToken0:   true,
		MinimumEthLocked: decimal.NewFromInt(60),
		PoolOverrides: map[string]PoolPolicy{
			"0x9663f2ca0454accad3e094448ea6f77443880454": PolicyDeny,
		},
	}
	cfg.buildSets()
	return cfg
}

// Load reads a JSON configuration file. Fields left out of the file
// keep their zero values; the file is the whole configuration, not an
// overlay on the mainnet defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks the fields the processor cannot run without.
func (c *Config) Validate() error {
	if c.FactoryAddress == "" {
		return fmt.Errorf("factory_address is required")
	}
	if c.ReferenceToken == "" {
		return fmt.Errorf("reference_token is required")
	}
	if c.StablePool == "" {
		return fmt.Errorf("stable_pool is required")
	}
	if c.MinimumEthLocked.IsNegative() {
		return fmt.Errorf("minimum_eth_locked must not be negative")
	}
	return nil
}

// normalize lowercases every address and rebuilds the lookup sets.
func (c *Config) normalize() {
	c.FactoryAddress = strings.ToLower(c.FactoryAddress)
	c.ReferenceToken = strings.ToLower(c.ReferenceToken)
	c.StablePool = strings.ToLower(c.StablePool)
	for i, a := range c.StableCoins {
		c.StableCoins[i] = strings.ToLower(a)
	}
	for i, a := range c.WhitelistTokens {
		c.WhitelistTokens[i] = strings.ToLower(a)
	}
	if len(c.PoolOverrides) > 0 {
		lowered := make(map[string]PoolPolicy, len(c.PoolOverrides))
		for addr, p := range c.PoolOverrides {
			lowered[strings.ToLower(addr)] = p
		}
		c.PoolOverrides = lowered
	}
	c.buildSets()
}

func (c *Config) buildSets() {
	c.stableSet = make(map[string]struct{}, len(c.StableCoins))
	for _, a := range c.StableCoins {
		c.stableSet[a] = struct{}{}
	}
	c.whitelistSet = make(map[string]struct{}, len(c.WhitelistTokens))
	for _, a := range c.WhitelistTokens {
		c.whitelistSet[a] = struct{}{}
	}
}

// IsStableCoin reports whether the token is in the stablecoin set.
func (c *Config) IsStableCoin(token string) bool {
	_, ok := c.stableSet[token]
	return ok
}

// IsWhitelisted reports whether the token is in the whitelist set.
func (c *Config) IsWhitelisted(token string) bool {
	_, ok := c.whitelistSet[token]
	return ok
}

// PoolPolicyFor returns the policy for a pool, PolicyNormal by default.
func (c *Config) PoolPolicyFor(pool string) PoolPolicy {
	if p, ok := c.PoolOverrides[pool]; ok {
		return p
	}
	return PolicyNormal
}
