package model

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

// PoolID is the keccak256 hash of the ABI-encoded pool key. It is the
// canonical sub-account key for per-pool ledgers.
type PoolID = common.Hash

// PoolKey identifies a pool configuration: currency pair, fee tier, tick
// spacing, and the hook contract attached to the pool.
type PoolKey struct {
	Currency0   string `json:"currency0"`
	Currency1   string `json:"currency1"`
	Fee         uint32 `json:"fee"`
	TickSpacing int32  `json:"tick_spacing"`
	Hooks       string `json:"hooks"`
}

// NativeCurrency is the sentinel for the chain's base asset. A pool whose
// first currency equals this value pairs the base asset against Currency1.
var NativeCurrency = common.Address{}

// Addresses parses and returns the key's currency and hook addresses.
func (k PoolKey) Addresses() (currency0, currency1, hooks common.Address, err error) {
	if !common.IsHexAddress(k.Currency0) {
		return currency0, currency1, hooks, fmt.Errorf("invalid currency0: %s", k.Currency0)
	}
	if !common.IsHexAddress(k.Currency1) {
		return currency0, currency1, hooks, fmt.Errorf("invalid currency1: %s", k.Currency1)
	}
	if k.Hooks != "" && !common.IsHexAddress(k.Hooks) {
		return currency0, currency1, hooks, fmt.Errorf("invalid hooks address: %s", k.Hooks)
	}
	currency0 = common.HexToAddress(k.Currency0)
	currency1 = common.HexToAddress(k.Currency1)
	if k.Hooks != "" {
		hooks = common.HexToAddress(k.Hooks)
	}
	return currency0, currency1, hooks, nil
}

// ID computes the pool identifier as keccak256 over the key fields encoded
// as five 32-byte words, matching the on-chain encoding.
func (k PoolKey) ID() (PoolID, error) {
	currency0, currency1, hooks, err := k.Addresses()
	if err != nil {
		return PoolID{}, err
	}

	buf := make([]byte, 0, 160)
	buf = append(buf, common.LeftPadBytes(currency0.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(currency1.Bytes(), 32)...)
	buf = append(buf, common.LeftPadBytes(new(big.Int).SetUint64(uint64(k.Fee)).Bytes(), 32)...)
	buf = append(buf, math.U256Bytes(big.NewInt(int64(k.TickSpacing)))...)
	buf = append(buf, common.LeftPadBytes(hooks.Bytes(), 32)...)

	return crypto.Keccak256Hash(buf), nil
}

// HasNativeBase reports whether the pool's first currency is the native
// base asset.
func (k PoolKey) HasNativeBase() bool {
	if !common.IsHexAddress(k.Currency0) {
		return false
	}
	return common.HexToAddress(k.Currency0) == NativeCurrency
}
