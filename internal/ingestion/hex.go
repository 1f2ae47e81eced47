package ingestion

import (
	"fmt"
	"math/big"
	"strings"
)

// Swap log payload layout: five 32-byte words.
const (
	wordChars     = 64
	swapDataWords = 5
)

// int256Bound is 2^255, the threshold above which a 256-bit word is a
// negative two's-complement value.
var (
	int256Bound = new(big.Int).Lsh(big.NewInt(1), 255)
	int256Wrap  = new(big.Int).Lsh(big.NewInt(1), 256)
)

func stripHexPrefix(s string) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s[2:]
	}
	return s
}

// parseHexUint64 parses a 0x-prefixed quantity like a block number.
func parseHexUint64(s string) (uint64, error) {
	v, ok := new(big.Int).SetString(stripHexPrefix(s), 16)
	if !ok {
		return 0, fmt.Errorf("invalid hex quantity %q", s)
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("hex quantity %q overflows uint64", s)
	}
	return v.Uint64(), nil
}

// parseHexWord parses one 32-byte word as an unsigned integer.
func parseHexWord(word string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(word, 16)
	if !ok {
		return nil, fmt.Errorf("invalid hex word %q", word)
	}
	return v, nil
}

// parseHexInt256 parses one 32-byte word as a signed two's-complement
// integer. The ABI sign-extends narrow signed types (int24 ticks
// included) to the full word, so this covers every signed field.
func parseHexInt256(word string) (*big.Int, error) {
	v, err := parseHexWord(word)
	if err != nil {
		return nil, err
	}
	if v.Cmp(int256Bound) >= 0 {
		v.Sub(v, int256Wrap)
	}
	return v, nil
}

// splitDataWords splits a log's data payload into 32-byte words.
func splitDataWords(data string, want int) ([]string, error) {
	hexData := stripHexPrefix(data)
	if len(hexData) != want*wordChars {
		return nil, fmt.Errorf("expected %d data words, got %d hex chars", want, len(hexData))
	}
	words := make([]string, want)
	for i := range words {
		words[i] = hexData[i*wordChars : (i+1)*wordChars]
	}
	return words, nil
}

// topicToAddress extracts the 20-byte address padded into a topic.
func topicToAddress(topic string) (string, error) {
	hexTopic := stripHexPrefix(topic)
	if len(hexTopic) != wordChars {
		return "", fmt.Errorf("invalid topic %q", topic)
	}
	return "0x" + strings.ToLower(hexTopic[24:]), nil
}
