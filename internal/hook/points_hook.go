package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"pointscope/internal/engine"
	"pointscope/internal/ledger"
	"pointscope/internal/model"
)

// PointsDivisor fixes the reward rate: one point per five units of base
// asset spent (20%, truncated toward zero).
const PointsDivisor = 5

const (
	skipCurrencyNotNative = "currency_not_native"
	skipWrongDirection    = "wrong_direction"
	skipNoRecipient       = "no_recipient"
	skipNullRecipient     = "null_recipient"
	skipZeroReward        = "zero_reward"
)

// PointsHook is the reward accountant. It observes settled swaps and credits
// loyalty points for eligible trades: pools pairing the native base asset as
// currency0, traded in the base-asset-in direction.
type PointsHook struct {
	ledger  ledger.Ledger
	logger  *zap.Logger
	metrics *Metrics
}

// New builds a points hook over the given ledger.
func New(l ledger.Ledger, logger *zap.Logger) *PointsHook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsHook{
		ledger:  l,
		logger:  logger,
		metrics: PointsMetrics(),
	}
}

// Permissions declares the post-swap callback and nothing else.
func (h *PointsHook) Permissions() engine.Permissions {
	return engine.Permissions{AfterSwap: true}
}

// Outcome reports what one notification produced: a credit, or a named
// no-op. Failures surface through the error return instead.
type Outcome struct {
	Credited   bool
	SkipReason string
	Recipient  common.Address
	Points     *big.Int
}

// AfterSwap handles one post-settlement trade notification. Ineligible
// trades and trades without a usable recipient are acknowledged with no
// effect. Malformed notifications and ledger failures return an error, which
// aborts the enclosing trade in the host.
func (h *PointsHook) AfterSwap(ctx context.Context, note *model.TradeNotification) (engine.AfterSwapResult, error) {
	_, err := h.Process(ctx, note)
	return engine.AfterSwapAck(), err
}

// Process applies the reward accounting for one notification and reports
// the outcome. The replay pipeline uses this directly so its summary can
// tell credits from no-ops.
func (h *PointsHook) Process(ctx context.Context, note *model.TradeNotification) (Outcome, error) {
	if note == nil {
		return Outcome{}, fmt.Errorf("nil trade notification")
	}
	h.metrics.ObserveSwap()

	if !note.Key.HasNativeBase() {
		return h.skip(note, skipCurrencyNotNative), nil
	}
	if !note.Params.ZeroForOne {
		return h.skip(note, skipWrongDirection), nil
	}

	poolID, err := note.Key.ID()
	if err != nil {
		return Outcome{}, fmt.Errorf("pool id: %w", err)
	}

	reward, err := rewardFromDelta(note.Delta)
	if err != nil {
		return Outcome{}, err
	}

	recipient, supplied, err := DecodeRecipient(note.HookData)
	if err != nil {
		return Outcome{}, err
	}
	if !supplied {
		return h.skip(note, skipNoRecipient), nil
	}
	if recipient == (common.Address{}) {
		return h.skip(note, skipNullRecipient), nil
	}
	if reward.Sign() == 0 {
		return h.skip(note, skipZeroReward), nil
	}

	if err := h.ledger.Credit(ctx, recipient, poolID, reward); err != nil {
		return Outcome{}, fmt.Errorf("credit points: %w", err)
	}

	h.metrics.ObserveCredit(reward)
	h.logger.Debug("points accrued",
		zap.Uint64("sequence", note.Sequence),
		zap.String("pool_id", poolID.Hex()),
		zap.String("recipient", recipient.Hex()),
		zap.String("points", reward.String()),
	)
	return Outcome{Credited: true, Recipient: recipient, Points: reward}, nil
}

// TotalByPool returns the cumulative points ever issued in the pool; zero
// for pools never observed.
func (h *PointsHook) TotalByPool(ctx context.Context, pool model.PoolID) (*big.Int, error) {
	return h.ledger.TotalByPool(ctx, pool)
}

// rewardFromDelta derives the base-asset spend from the signed settlement
// delta and applies the points rate. The delta is negative when the trader
// owes the pool, so the spend is its negation; this holds for exact-input
// and exact-output trades alike.
func rewardFromDelta(delta model.BalanceDelta) (*big.Int, error) {
	amount0, err := model.ParseBig(delta.Amount0)
	if err != nil {
		return nil, fmt.Errorf("parse amount0: %w", err)
	}
	spent := new(big.Int).Neg(amount0)
	if spent.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNegativeSpend, spent)
	}
	return spent.Quo(spent, big.NewInt(PointsDivisor)), nil
}

func (h *PointsHook) skip(note *model.TradeNotification, reason string) Outcome {
	h.metrics.ObserveSkip(reason)
	h.logger.Debug("swap skipped",
		zap.Uint64("sequence", note.Sequence),
		zap.String("reason", reason),
		zap.String("currency0", note.Key.Currency0),
		zap.Bool("zero_for_one", note.Params.ZeroForOne),
	)
	return Outcome{SkipReason: reason}
}
