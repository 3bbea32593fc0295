package engine

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"pointscope/internal/model"
)

// Permissions declares which lifecycle callbacks a hook wants. The engine
// queries this once when a pool referencing the hook is initialized.
type Permissions struct {
	BeforeInitialize      bool
	AfterInitialize       bool
	BeforeAddLiquidity    bool
	AfterAddLiquidity     bool
	BeforeRemoveLiquidity bool
	AfterRemoveLiquidity  bool
	BeforeSwap            bool
	AfterSwap             bool
	BeforeDonate          bool
	AfterDonate           bool
}

// AfterSwapResult is the acknowledgment a hook returns from its post-swap
// callback: the fixed selector plus a zero unspecified-currency adjustment.
type AfterSwapResult struct {
	Selector  [4]byte
	HookDelta *big.Int
}

// SwapHook receives a synchronous notification after each settled swap on a
// pool that references it. Returning an error aborts the whole trade.
type SwapHook interface {
	Permissions() Permissions
	AfterSwap(ctx context.Context, note *model.TradeNotification) (AfterSwapResult, error)
}

const afterSwapSignature = "afterSwap(address,(address,address,uint24,int24,address),(bool,int256,uint160),int256,bytes)"

// AfterSwapSelector is the acknowledgment value the engine expects back from
// every after-swap callback.
var AfterSwapSelector = func() [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(afterSwapSignature))[:4])
	return sel
}()

// AfterSwapAck builds the standard acknowledgment with a zero hook delta.
func AfterSwapAck() AfterSwapResult {
	return AfterSwapResult{Selector: AfterSwapSelector, HookDelta: big.NewInt(0)}
}
