package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestMemoryLedgerLazyZero(t *testing.T) {
	l := NewMemoryLedger()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	pool := common.HexToHash("0xaaaa")

	balance, err := l.BalanceOf(context.Background(), account, pool)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Sign() != 0 {
		t.Fatalf("expected zero balance, got %s", balance)
	}
	total, err := l.TotalByPool(context.Background(), pool)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Sign() != 0 {
		t.Fatalf("expected zero total, got %s", total)
	}
}

func TestMemoryLedgerCreditAccumulates(t *testing.T) {
	l := NewMemoryLedger()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	other := common.HexToAddress("0x2222222222222222222222222222222222222222")
	pool := common.HexToHash("0xaaaa")

	if err := l.Credit(context.Background(), account, pool, big.NewInt(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Credit(context.Background(), account, pool, big.NewInt(7)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Credit(context.Background(), other, pool, big.NewInt(3)); err != nil {
		t.Fatalf("credit: %v", err)
	}

	balance, _ := l.BalanceOf(context.Background(), account, pool)
	if balance.Cmp(big.NewInt(12)) != 0 {
		t.Fatalf("balance mismatch: %s", balance)
	}
	total, _ := l.TotalByPool(context.Background(), pool)
	if total.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("total mismatch: %s", total)
	}
	if total.Cmp(l.BalanceSum(pool)) != 0 {
		t.Fatalf("invariant broken: %s != %s", total, l.BalanceSum(pool))
	}
}

func TestMemoryLedgerRejectsBadAmounts(t *testing.T) {
	l := NewMemoryLedger()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	pool := common.HexToHash("0xaaaa")

	if err := l.Credit(context.Background(), account, pool, nil); err == nil {
		t.Fatalf("expected error for nil amount")
	}
	if err := l.Credit(context.Background(), account, pool, big.NewInt(-1)); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	total, _ := l.TotalByPool(context.Background(), pool)
	if total.Sign() != 0 {
		t.Fatalf("rejected credits must not mutate: %s", total)
	}
}

func TestMemoryLedgerReturnsCopies(t *testing.T) {
	l := NewMemoryLedger()
	account := common.HexToAddress("0x1111111111111111111111111111111111111111")
	pool := common.HexToHash("0xaaaa")

	if err := l.Credit(context.Background(), account, pool, big.NewInt(5)); err != nil {
		t.Fatalf("credit: %v", err)
	}
	balance, _ := l.BalanceOf(context.Background(), account, pool)
	balance.SetInt64(999)

	fresh, _ := l.BalanceOf(context.Background(), account, pool)
	if fresh.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("ledger state mutated through returned value: %s", fresh)
	}
}
