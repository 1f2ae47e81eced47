// Package pricing derives ETH and USD prices for tokens and classifies
// swap volume as tracked or untracked. All prices flow through the
// reference token: a token's derivedETH comes from its deepest
// whitelist pool, and the reference token's USD price comes from the
// configured stable pool.
package pricing

import (
	"math/big"

	"github.com/shopspring/decimal"

	"dex-market-indexer/internal/domain"
)

// q192 is 2^192, the square of the X96 fixed-point scale.
var q192 = decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 192), 0)

// SqrtPriceX96ToTokenPrices converts a pool's X96 square-root price to
// the pair of decimal spot prices. The returned price1 is the amount of
// token1 per unit of token0; price0 is its reciprocal, zero when the
// square-root price is zero.
func SqrtPriceX96ToTokenPrices(sqrtPriceX96 *big.Int, token0Decimals, token1Decimals int32) (price0, price1 decimal.Decimal) {
	if sqrtPriceX96 == nil || sqrtPriceX96.Sign() == 0 {
		return decimal.Zero, decimal.Zero
	}

	squared := new(big.Int).Mul(sqrtPriceX96, sqrtPriceX96)
	raw := domain.SafeDiv(decimal.NewFromBigInt(squared, 0), q192)

	// The raw ratio is in unscaled on-chain units; shifting by the
	// decimals difference moves it to human token units.
	price1 = raw.Shift(token0Decimals - token1Decimals)
	price0 = domain.SafeDiv(decimal.NewFromInt(1), price1)
	return price0, price1
}
