package pricing

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSqrtPriceX96ToTokenPrices_UnitPrice(t *testing.T) {
	// sqrtPrice = 2^96 means the raw reserves trade 1:1. With equal
	// decimals both spot prices are exactly 1.
	sp := new(big.Int).Lsh(big.NewInt(1), 96)

	price0, price1 := SqrtPriceX96ToTokenPrices(sp, 18, 18)

	if !price1.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected price1 = 1, got %s", price1)
	}
	if !price0.Equal(decimal.NewFromInt(1)) {
		t.Errorf("expected price0 = 1, got %s", price0)
	}
}

func TestSqrtPriceX96ToTokenPrices_DecimalsShift(t *testing.T) {
	// Same 1:1 raw ratio, but token0 has 18 decimals and token1 has 6:
	// a whole unit of token0 is 10^18 raw, which buys 10^18 raw token1,
	// i.e. 10^12 whole units. price1 shifts by 10^(dec0-dec1).
	sp := new(big.Int).Lsh(big.NewInt(1), 96)

	price0, price1 := SqrtPriceX96ToTokenPrices(sp, 18, 6)

	want1 := decimal.New(1, 12)
	if !price1.Equal(want1) {
		t.Errorf("expected price1 = 1e12, got %s", price1)
	}
	want0 := decimal.New(1, -12)
	if !price0.Equal(want0) {
		t.Errorf("expected price0 = 1e-12, got %s", price0)
	}
}

func TestSqrtPriceX96ToTokenPrices_RealisticPair(t *testing.T) {
	// A pool holding an 18-decimals token0 against a 6-decimals token1
	// at 2000 token1 per token0 has a raw ratio of 2000/10^12 = 1/5e8.
	// sqrtPrice is the integer square root of 2^192 / 5e8.
	q192 := new(big.Int).Lsh(big.NewInt(1), 192)
	sp := new(big.Int).Sqrt(new(big.Int).Div(q192, big.NewInt(500_000_000)))

	price0, price1 := SqrtPriceX96ToTokenPrices(sp, 18, 6)

	tolerance := decimal.NewFromFloat(0.01)
	if price1.Sub(decimal.NewFromInt(2000)).Abs().GreaterThan(tolerance) {
		t.Errorf("expected price1 ~= 2000, got %s", price1)
	}
	wantPrice0 := decimal.NewFromFloat(0.0005)
	if price0.Sub(wantPrice0).Abs().GreaterThan(decimal.NewFromFloat(0.0000001)) {
		t.Errorf("expected price0 ~= 0.0005, got %s", price0)
	}
}

func TestSqrtPriceX96ToTokenPrices_ZeroAndNil(t *testing.T) {
	price0, price1 := SqrtPriceX96ToTokenPrices(big.NewInt(0), 18, 18)
	if !price0.IsZero() || !price1.IsZero() {
		t.Errorf("expected zero prices for zero sqrtPrice, got %s / %s", price0, price1)
	}

	price0, price1 = SqrtPriceX96ToTokenPrices(nil, 18, 18)
	if !price0.IsZero() || !price1.IsZero() {
		t.Errorf("expected zero prices for nil sqrtPrice, got %s / %s", price0, price1)
	}
}
