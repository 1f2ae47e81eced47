package ingestion

import (
	"context"
	"fmt"
	"math/big"
	"testing"
)

// abiWord formats a signed value as one 32-byte two's-complement word.
func abiWord(v *big.Int) string {
	if v.Sign() < 0 {
		v = new(big.Int).Add(int256Wrap, v)
	}
	return fmt.Sprintf("%064x", v)
}

func TestParseHexInt256(t *testing.T) {
	cases := []struct {
		value *big.Int
	}{
		{big.NewInt(0)},
		{big.NewInt(1)},
		{big.NewInt(-1)},
		{big.NewInt(-2_000_000_000)},
		{new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil)},
		{new(big.Int).Neg(new(big.Int).Exp(big.NewInt(10), big.NewInt(24), nil))},
		{big.NewInt(-887272)}, // minimum tick, sign-extended by the ABI
	}
	for _, c := range cases {
		got, err := parseHexInt256(abiWord(c.value))
		if err != nil {
			t.Errorf("parseHexInt256(%s) failed: %v", c.value, err)
			continue
		}
		if got.Cmp(c.value) != 0 {
			t.Errorf("parseHexInt256 round trip: expected %s, got %s", c.value, got)
		}
	}
}

func TestParseHexUint64(t *testing.T) {
	v, err := parseHexUint64("0x12d687")
	if err != nil {
		t.Fatalf("parseHexUint64 failed: %v", err)
	}
	if v != 1234567 {
		t.Errorf("expected 1234567, got %d", v)
	}

	if _, err := parseHexUint64("0xzz"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := parseHexUint64("0x10000000000000000"); err == nil {
		t.Error("expected overflow error")
	}
}

func TestTopicToAddress(t *testing.T) {
	topic := "0x000000000000000000000000C02AAA39B223FE8D0A0E5C4F27EAD9083C756CC2"
	addr, err := topicToAddress(topic)
	if err != nil {
		t.Fatalf("topicToAddress failed: %v", err)
	}
	if addr != "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" {
		t.Errorf("expected lowercase address, got %s", addr)
	}

	if _, err := topicToAddress("0x1234"); err == nil {
		t.Error("expected error for short topic")
	}
}

func TestDecodeLog(t *testing.T) {
	amount0, _ := new(big.Int).SetString("1000000000000000000", 10)
	amount1 := big.NewInt(-2_000_000_000)
	sqrtPrice, _ := new(big.Int).SetString("1880000000000000000000000000", 10)
	liquidity := big.NewInt(500_000)
	tick := big.NewInt(-200697)

	data := "0x" + abiWord(amount0) + abiWord(amount1) + abiWord(sqrtPrice) + abiWord(liquidity) + abiWord(tick)
	l := &wireLog{
		Address: "0x88E6A0c2dDD26FEEb64F039a2c41296FcB3f5640",
		Topics: []string{
			SwapTopic,
			"0x000000000000000000000000aaaa000000000000000000000000000000000001",
			"0x000000000000000000000000bbbb000000000000000000000000000000000002",
		},
		Data:             data,
		BlockNumber:      "0x12d687",
		TransactionHash:  "0xABCDEF",
		TransactionIndex: "0x2",
		LogIndex:         "0x7",
	}

	src := NewWSLogSource("ws://unused", nil, nil)
	src.blockTimes[1234567] = 1620172900 // pre-cache so no RPC round trip

	event, err := src.decodeLog(context.Background(), l)
	if err != nil {
		t.Fatalf("decodeLog failed: %v", err)
	}

	if event.Pool != "0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640" {
		t.Errorf("pool = %s", event.Pool)
	}
	if event.Amount0.Cmp(amount0) != 0 {
		t.Errorf("amount0 = %s", event.Amount0)
	}
	if event.Amount1.Cmp(amount1) != 0 {
		t.Errorf("amount1 = %s, expected %s", event.Amount1, amount1)
	}
	if event.SqrtPriceX96.Cmp(sqrtPrice) != 0 {
		t.Errorf("sqrtPriceX96 = %s", event.SqrtPriceX96)
	}
	if event.Liquidity.Cmp(liquidity) != 0 {
		t.Errorf("liquidity = %s", event.Liquidity)
	}
	if event.Tick != -200697 {
		t.Errorf("tick = %d", event.Tick)
	}
	if event.BlockNumber != 1234567 || event.TxIndex != 2 || event.LogIndex != 7 {
		t.Errorf("ordering key = (%d,%d,%d)", event.BlockNumber, event.TxIndex, event.LogIndex)
	}
	if event.BlockTime != 1620172900 {
		t.Errorf("blockTime = %d", event.BlockTime)
	}
	if event.Sender != "0xaaaa000000000000000000000000000000000001" {
		t.Errorf("sender = %s", event.Sender)
	}
	if event.Recipient != "0xbbbb000000000000000000000000000000000002" {
		t.Errorf("recipient = %s", event.Recipient)
	}
}

func TestDecodeLog_MalformedData(t *testing.T) {
	src := NewWSLogSource("ws://unused", nil, nil)
	src.blockTimes[1] = 1

	l := &wireLog{
		Topics: []string{
			SwapTopic,
			"0x000000000000000000000000aaaa000000000000000000000000000000000001",
			"0x000000000000000000000000bbbb000000000000000000000000000000000002",
		},
		Data:        "0x1234", // truncated payload
		BlockNumber: "0x1",
	}
	if _, err := src.decodeLog(context.Background(), l); err == nil {
		t.Error("expected error for truncated data")
	}

	l.Data = ""
	l.Topics = l.Topics[:2]
	if _, err := src.decodeLog(context.Background(), l); err == nil {
		t.Error("expected error for missing topic")
	}
}
