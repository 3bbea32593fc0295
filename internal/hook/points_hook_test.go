package hook

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"pointscope/internal/engine"
	"pointscope/internal/ledger"
	"pointscope/internal/model"
)

const (
	nativeAddr = "0x0000000000000000000000000000000000000000"
	tokenAddr  = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	token2Addr = "0xcccccccccccccccccccccccccccccccccccccccc"
	hooksAddr  = "0x1111111111111111111111111111111111111111"
)

func nativeKey(currency1 string) model.PoolKey {
	return model.PoolKey{
		Currency0:   nativeAddr,
		Currency1:   currency1,
		Fee:         3000,
		TickSpacing: 60,
		Hooks:       hooksAddr,
	}
}

func encodeRecipient(addr common.Address) []byte {
	return common.LeftPadBytes(addr.Bytes(), 32)
}

func eligibleNote(key model.PoolKey, spent string, hookData []byte) *model.TradeNotification {
	return &model.TradeNotification{
		Sequence: 1,
		Sender:   "0x2222222222222222222222222222222222222222",
		Key:      key,
		Params:   model.SwapParams{ZeroForOne: true, AmountSpecified: "-" + spent},
		Delta:    model.BalanceDelta{Amount0: "-" + spent, Amount1: "1"},
		HookData: hookData,
	}
}

func mustPoolID(t *testing.T, key model.PoolKey) model.PoolID {
	t.Helper()
	id, err := key.ID()
	if err != nil {
		t.Fatalf("pool id: %v", err)
	}
	return id
}

func checkInvariant(t *testing.T, l *ledger.MemoryLedger, pool model.PoolID) {
	t.Helper()
	total, err := l.TotalByPool(context.Background(), pool)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(l.BalanceSum(pool)) != 0 {
		t.Fatalf("invariant broken: total %s != balance sum %s", total, l.BalanceSum(pool))
	}
}

func TestAfterSwapCreditsEligibleTrade(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	// 10 units of base asset at 10^18 scale.
	note := eligibleNote(key, "10000000000000000000", encodeRecipient(user))
	result, err := h.AfterSwap(context.Background(), note)
	if err != nil {
		t.Fatalf("after swap: %v", err)
	}
	if result.Selector != engine.AfterSwapSelector {
		t.Fatalf("unexpected selector: %x", result.Selector)
	}
	if result.HookDelta == nil || result.HookDelta.Sign() != 0 {
		t.Fatalf("expected zero hook delta, got %v", result.HookDelta)
	}

	want, _ := new(big.Int).SetString("2000000000000000000", 10)
	balance, err := mem.BalanceOf(context.Background(), user, pool)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Cmp(want) != 0 {
		t.Fatalf("balance mismatch: %s != %s", balance, want)
	}
	total, err := h.TotalByPool(context.Background(), pool)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(want) != 0 {
		t.Fatalf("total mismatch: %s != %s", total, want)
	}
	checkInvariant(t, mem, pool)
}

func TestAfterSwapRewardTruncates(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	// 9 / 5 truncates to 1; the remainder is dropped, not carried.
	note := eligibleNote(key, "9", encodeRecipient(user))
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	balance, _ := mem.BalanceOf(context.Background(), user, pool)
	if balance.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("balance mismatch: %s", balance)
	}

	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	balance, _ = mem.BalanceOf(context.Background(), user, pool)
	if balance.Cmp(big.NewInt(2)) != 0 {
		t.Fatalf("no carry expected: %s", balance)
	}
	checkInvariant(t, mem, pool)
}

func TestAfterSwapSkipsNonNativePool(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := model.PoolKey{
		Currency0:   tokenAddr,
		Currency1:   token2Addr,
		Fee:         3000,
		TickSpacing: 60,
		Hooks:       hooksAddr,
	}
	pool := mustPoolID(t, key)

	note := eligibleNote(key, "1000", encodeRecipient(user))
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("expected no points, got %s", total)
	}
	balance, _ := mem.BalanceOf(context.Background(), user, pool)
	if balance.Sign() != 0 {
		t.Fatalf("expected no balance, got %s", balance)
	}
}

func TestAfterSwapSkipsReverseDirection(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	note := &model.TradeNotification{
		Key:      key,
		Params:   model.SwapParams{ZeroForOne: false, AmountSpecified: "-1000"},
		Delta:    model.BalanceDelta{Amount0: "1000", Amount1: "-2000"},
		HookData: encodeRecipient(user),
	}
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("expected no points, got %s", total)
	}
}

func TestAfterSwapEmptyPayloadNoMutation(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	note := eligibleNote(key, "10000000000000000000", nil)
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("expected total unchanged, got %s", total)
	}
}

func TestAfterSwapNullRecipientNoMutation(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	note := eligibleNote(key, "1000", encodeRecipient(common.Address{}))
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("expected total unchanged, got %s", total)
	}
}

func TestAfterSwapMalformedPayloadFails(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	note := eligibleNote(key, "1000", []byte{0x01, 0x02, 0x03})
	if _, err := h.AfterSwap(context.Background(), note); !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected malformed payload error, got %v", err)
	}
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("expected total unchanged, got %s", total)
	}
}

func TestAfterSwapNegativeSpendFails(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)

	note := &model.TradeNotification{
		Key:      key,
		Params:   model.SwapParams{ZeroForOne: true, AmountSpecified: "-1000"},
		Delta:    model.BalanceDelta{Amount0: "1000", Amount1: "-2000"},
		HookData: encodeRecipient(user),
	}
	if _, err := h.AfterSwap(context.Background(), note); !errors.Is(err, ErrNegativeSpend) {
		t.Fatalf("expected negative spend error, got %v", err)
	}
}

func TestAfterSwapExactOutputSameFormula(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	// Exact output: positive amount specified, but the settled delta still
	// carries the true base-asset spend.
	note := &model.TradeNotification{
		Key:      key,
		Params:   model.SwapParams{ZeroForOne: true, AmountSpecified: "500"},
		Delta:    model.BalanceDelta{Amount0: "-25", Amount1: "500"},
		HookData: encodeRecipient(user),
	}
	if _, err := h.AfterSwap(context.Background(), note); err != nil {
		t.Fatalf("after swap: %v", err)
	}
	balance, _ := mem.BalanceOf(context.Background(), user, pool)
	if balance.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("balance mismatch: %s", balance)
	}
}

func TestAfterSwapPoolIsolation(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	userA := common.HexToAddress("0x4444444444444444444444444444444444444444")
	userB := common.HexToAddress("0x5555555555555555555555555555555555555555")
	keyA := nativeKey(tokenAddr)
	keyB := nativeKey(token2Addr)
	poolA := mustPoolID(t, keyA)
	poolB := mustPoolID(t, keyB)

	if _, err := h.AfterSwap(context.Background(), eligibleNote(keyA, "100", encodeRecipient(userA))); err != nil {
		t.Fatalf("after swap A: %v", err)
	}
	if _, err := h.AfterSwap(context.Background(), eligibleNote(keyB, "100", encodeRecipient(userB))); err != nil {
		t.Fatalf("after swap B: %v", err)
	}

	totalA, _ := mem.TotalByPool(context.Background(), poolA)
	totalB, _ := mem.TotalByPool(context.Background(), poolB)
	if totalA.Cmp(big.NewInt(20)) != 0 || totalB.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("totals mismatch: %s, %s", totalA, totalB)
	}

	crossBalance, _ := mem.BalanceOf(context.Background(), userA, poolB)
	if crossBalance.Sign() != 0 {
		t.Fatalf("cross-pool balance leak: %s", crossBalance)
	}
	checkInvariant(t, mem, poolA)
	checkInvariant(t, mem, poolB)
}

func TestAfterSwapInvariantOverSequence(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	users := []common.Address{
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
		common.HexToAddress("0x5555555555555555555555555555555555555555"),
		common.HexToAddress("0x6666666666666666666666666666666666666666"),
	}
	key := nativeKey(tokenAddr)
	pool := mustPoolID(t, key)

	spends := []string{"5", "17", "100", "3", "250"}
	for i, spend := range spends {
		user := users[i%len(users)]
		if _, err := h.AfterSwap(context.Background(), eligibleNote(key, spend, encodeRecipient(user))); err != nil {
			t.Fatalf("after swap %d: %v", i, err)
		}
		checkInvariant(t, mem, pool)
	}

	// floor(5/5)+floor(17/5)+floor(100/5)+floor(3/5)+floor(250/5) = 1+3+20+0+50
	total, _ := mem.TotalByPool(context.Background(), pool)
	if total.Cmp(big.NewInt(74)) != 0 {
		t.Fatalf("total mismatch: %s", total)
	}
}

func TestProcessReportsOutcome(t *testing.T) {
	mem := ledger.NewMemoryLedger()
	h := New(mem, nil)
	user := common.HexToAddress("0x4444444444444444444444444444444444444444")
	key := nativeKey(tokenAddr)

	outcome, err := h.Process(context.Background(), eligibleNote(key, "100", encodeRecipient(user)))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !outcome.Credited || outcome.Recipient != user {
		t.Fatalf("outcome mismatch: %+v", outcome)
	}
	if outcome.Points == nil || outcome.Points.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("points mismatch: %v", outcome.Points)
	}

	outcome, err = h.Process(context.Background(), eligibleNote(key, "100", nil))
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome.Credited || outcome.SkipReason != "no_recipient" {
		t.Fatalf("expected no-recipient skip, got %+v", outcome)
	}

	reverse := &model.TradeNotification{
		Key:      key,
		Params:   model.SwapParams{ZeroForOne: false, AmountSpecified: "-100"},
		Delta:    model.BalanceDelta{Amount0: "100", Amount1: "-200"},
		HookData: encodeRecipient(user),
	}
	outcome, err = h.Process(context.Background(), reverse)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if outcome.Credited || outcome.SkipReason != "wrong_direction" {
		t.Fatalf("expected wrong-direction skip, got %+v", outcome)
	}
}

func TestTotalByPoolUnknownPoolIsZero(t *testing.T) {
	h := New(ledger.NewMemoryLedger(), nil)
	total, err := h.TotalByPool(context.Background(), common.HexToHash("0xdead"))
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Sign() != 0 {
		t.Fatalf("expected zero, got %s", total)
	}
}

func TestPermissionsDeclareOnlyAfterSwap(t *testing.T) {
	perms := New(ledger.NewMemoryLedger(), nil).Permissions()
	if !perms.AfterSwap {
		t.Fatalf("after swap must be declared")
	}
	if perms.BeforeInitialize || perms.AfterInitialize ||
		perms.BeforeAddLiquidity || perms.AfterAddLiquidity ||
		perms.BeforeRemoveLiquidity || perms.AfterRemoveLiquidity ||
		perms.BeforeSwap || perms.BeforeDonate || perms.AfterDonate {
		t.Fatalf("unexpected permissions declared: %+v", perms)
	}
}
