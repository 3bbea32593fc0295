package engine

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pointscope/internal/model"
)

var (
	ErrPoolExists            = errors.New("pool already initialized")
	ErrPoolNotFound          = errors.New("pool not found")
	ErrHookNotRegistered     = errors.New("hook not registered")
	ErrInvalidHookResponse   = errors.New("hook returned unexpected selector")
	ErrInsufficientLiquidity = errors.New("insufficient pool liquidity")
)

const feeDenominator = 1_000_000

// Engine is a minimal single-threaded pool manager. It settles swaps against
// constant-product reserves and invokes a pool's hook exactly once per
// completed trade, after settlement, before returning to the caller. Any
// hook failure aborts the trade: reserves are restored and no delta applies.
type Engine struct {
	hooks  map[common.Address]SwapHook
	pools  map[model.PoolID]*poolState
	logger *zap.Logger
	seq    uint64
}

type poolState struct {
	key       model.PoolKey
	reserve0  *big.Int
	reserve1  *big.Int
	hook      SwapHook
	afterSwap bool
}

// New builds an engine with no pools.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		hooks:  make(map[common.Address]SwapHook),
		pools:  make(map[model.PoolID]*poolState),
		logger: logger,
	}
}

// RegisterHook binds a hook implementation to the address pools reference it
// by. Registration must precede initialization of any pool using the hook.
func (e *Engine) RegisterHook(address string, hook SwapHook) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid hook address: %s", address)
	}
	if hook == nil {
		return fmt.Errorf("hook is nil")
	}
	e.hooks[common.HexToAddress(address)] = hook
	return nil
}

// Initialize registers a pool with starting reserves and resolves its hook.
// The hook's permissions are queried here, once, and cached.
func (e *Engine) Initialize(key model.PoolKey, reserve0, reserve1 *big.Int) (model.PoolID, error) {
	id, err := key.ID()
	if err != nil {
		return model.PoolID{}, err
	}
	if _, ok := e.pools[id]; ok {
		return model.PoolID{}, ErrPoolExists
	}
	if reserve0 == nil || reserve1 == nil || reserve0.Sign() <= 0 || reserve1.Sign() <= 0 {
		return model.PoolID{}, fmt.Errorf("reserves must be positive")
	}
	if key.Fee >= feeDenominator {
		return model.PoolID{}, fmt.Errorf("fee %d out of range", key.Fee)
	}

	state := &poolState{
		key:      key,
		reserve0: new(big.Int).Set(reserve0),
		reserve1: new(big.Int).Set(reserve1),
	}

	_, _, hookAddr, err := key.Addresses()
	if err != nil {
		return model.PoolID{}, err
	}
	if hookAddr != (common.Address{}) {
		hook, ok := e.hooks[hookAddr]
		if !ok {
			return model.PoolID{}, fmt.Errorf("%w: %s", ErrHookNotRegistered, hookAddr.Hex())
		}
		perms := hook.Permissions()
		state.hook = hook
		state.afterSwap = perms.AfterSwap
	}

	e.pools[id] = state
	e.logger.Debug("pool initialized",
		zap.String("pool_id", id.Hex()),
		zap.String("currency0", key.Currency0),
		zap.String("currency1", key.Currency1),
		zap.Uint32("fee", key.Fee),
		zap.Bool("after_swap_hook", state.afterSwap),
	)
	return id, nil
}

// Reserves returns copies of the pool's current reserves.
func (e *Engine) Reserves(id model.PoolID) (*big.Int, *big.Int, error) {
	pool, ok := e.pools[id]
	if !ok {
		return nil, nil, ErrPoolNotFound
	}
	return new(big.Int).Set(pool.reserve0), new(big.Int).Set(pool.reserve1), nil
}

// Swap settles a trade against the pool and notifies its hook. The returned
// delta is signed from the trader's point of view: negative amounts are owed
// to the pool.
func (e *Engine) Swap(ctx context.Context, sender string, id model.PoolID, params model.SwapParams, hookData []byte) (model.BalanceDelta, error) {
	pool, ok := e.pools[id]
	if !ok {
		return model.BalanceDelta{}, ErrPoolNotFound
	}

	specified, err := model.ParseBig(params.AmountSpecified)
	if err != nil {
		return model.BalanceDelta{}, fmt.Errorf("parse amount specified: %w", err)
	}
	if specified.Sign() == 0 {
		return model.BalanceDelta{}, fmt.Errorf("amount specified is zero")
	}

	reserveIn, reserveOut := pool.reserve0, pool.reserve1
	if !params.ZeroForOne {
		reserveIn, reserveOut = pool.reserve1, pool.reserve0
	}

	var amountIn, amountOut *big.Int
	if specified.Sign() < 0 {
		amountIn = new(big.Int).Neg(specified)
		amountOut, err = quoteExactInput(reserveIn, reserveOut, amountIn, pool.key.Fee)
	} else {
		amountOut = new(big.Int).Set(specified)
		amountIn, err = quoteExactOutput(reserveIn, reserveOut, amountOut, pool.key.Fee)
	}
	if err != nil {
		return model.BalanceDelta{}, err
	}

	snapshot0 := new(big.Int).Set(pool.reserve0)
	snapshot1 := new(big.Int).Set(pool.reserve1)

	var delta model.BalanceDelta
	if params.ZeroForOne {
		pool.reserve0.Add(pool.reserve0, amountIn)
		pool.reserve1.Sub(pool.reserve1, amountOut)
		delta = model.BalanceDelta{
			Amount0: new(big.Int).Neg(amountIn).String(),
			Amount1: amountOut.String(),
		}
	} else {
		pool.reserve1.Add(pool.reserve1, amountIn)
		pool.reserve0.Sub(pool.reserve0, amountOut)
		delta = model.BalanceDelta{
			Amount0: amountOut.String(),
			Amount1: new(big.Int).Neg(amountIn).String(),
		}
	}

	if pool.afterSwap {
		e.seq++
		note := &model.TradeNotification{
			Sequence: e.seq,
			Sender:   normalizeAddress(sender),
			Key:      pool.key,
			Params:   params,
			Delta:    delta,
			HookData: hookData,
		}
		result, hookErr := pool.hook.AfterSwap(ctx, note)
		if hookErr != nil {
			pool.reserve0.Set(snapshot0)
			pool.reserve1.Set(snapshot1)
			return model.BalanceDelta{}, fmt.Errorf("after swap hook: %w", hookErr)
		}
		if result.Selector != AfterSwapSelector {
			pool.reserve0.Set(snapshot0)
			pool.reserve1.Set(snapshot1)
			return model.BalanceDelta{}, ErrInvalidHookResponse
		}
	}

	return delta, nil
}

// quoteExactInput computes the constant-product output for a fixed input,
// with the fee taken from the input side.
func quoteExactInput(reserveIn, reserveOut, amountIn *big.Int, fee uint32) (*big.Int, error) {
	if amountIn.Sign() <= 0 {
		return nil, fmt.Errorf("input amount must be positive")
	}
	inWithFee := new(big.Int).Mul(amountIn, big.NewInt(feeDenominator-int64(fee)))
	inWithFee.Quo(inWithFee, big.NewInt(feeDenominator))

	denom := new(big.Int).Add(reserveIn, inWithFee)
	out := new(big.Int).Mul(reserveOut, inWithFee)
	out.Quo(out, denom)
	if out.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return out, nil
}

// quoteExactOutput computes the input required for a fixed output, rounded
// up, then grossed up for the fee.
func quoteExactOutput(reserveIn, reserveOut, amountOut *big.Int, fee uint32) (*big.Int, error) {
	if amountOut.Sign() <= 0 {
		return nil, fmt.Errorf("output amount must be positive")
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	num := new(big.Int).Mul(reserveIn, amountOut)
	den := new(big.Int).Sub(reserveOut, amountOut)
	in := num.Quo(num, den)
	in.Add(in, big.NewInt(1))

	in.Mul(in, big.NewInt(feeDenominator))
	in.Quo(in, big.NewInt(feeDenominator-int64(fee)))
	return in, nil
}

func normalizeAddress(addr string) string {
	if common.IsHexAddress(addr) {
		return common.HexToAddress(addr).Hex()
	}
	return strings.TrimSpace(addr)
}
