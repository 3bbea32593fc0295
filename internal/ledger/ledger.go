package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"pointscope/internal/model"
)

// Ledger is the points balance store mutated by the reward accountant.
// Credit must apply the per-account balance increment and the pool total
// increment together: partial application would break the invariant that a
// pool's total equals the sum of its per-account balances.
type Ledger interface {
	Credit(ctx context.Context, account common.Address, pool model.PoolID, amount *big.Int) error
	BalanceOf(ctx context.Context, account common.Address, pool model.PoolID) (*big.Int, error)
	TotalByPool(ctx context.Context, pool model.PoolID) (*big.Int, error)
}

// MemoryLedger keeps balances in process memory. Entries are created lazily
// and only ever incremented. It is not safe for concurrent use; the host
// engine invokes the accountant strictly sequentially.
type MemoryLedger struct {
	balances map[model.PoolID]map[common.Address]*big.Int
	totals   map[model.PoolID]*big.Int
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[model.PoolID]map[common.Address]*big.Int),
		totals:   make(map[model.PoolID]*big.Int),
	}
}

func (l *MemoryLedger) Credit(ctx context.Context, account common.Address, pool model.PoolID, amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("credit amount is nil")
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("credit amount is negative: %s", amount)
	}

	poolBalances := l.balances[pool]
	if poolBalances == nil {
		poolBalances = make(map[common.Address]*big.Int)
		l.balances[pool] = poolBalances
	}
	balance := poolBalances[account]
	if balance == nil {
		balance = big.NewInt(0)
		poolBalances[account] = balance
	}
	total := l.totals[pool]
	if total == nil {
		total = big.NewInt(0)
		l.totals[pool] = total
	}

	balance.Add(balance, amount)
	total.Add(total, amount)
	return nil
}

func (l *MemoryLedger) BalanceOf(ctx context.Context, account common.Address, pool model.PoolID) (*big.Int, error) {
	poolBalances := l.balances[pool]
	if poolBalances == nil {
		return big.NewInt(0), nil
	}
	balance := poolBalances[account]
	if balance == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(balance), nil
}

func (l *MemoryLedger) TotalByPool(ctx context.Context, pool model.PoolID) (*big.Int, error) {
	total := l.totals[pool]
	if total == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(total), nil
}

// BalanceSum returns the sum of all per-account balances recorded under the
// pool. It exists so callers can verify the total/balances invariant.
func (l *MemoryLedger) BalanceSum(pool model.PoolID) *big.Int {
	sum := big.NewInt(0)
	for _, balance := range l.balances[pool] {
		sum.Add(sum, balance)
	}
	return sum
}
