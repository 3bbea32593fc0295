package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pointscope/internal/model"
)

// Store provides Postgres persistence for the points ledger. It implements
// ledger.Ledger with both mutations of a credit inside one transaction, so
// the pool-total invariant survives partial failures.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Credit increments the account's balance and the pool total atomically.
func (s *Store) Credit(ctx context.Context, account common.Address, pool model.PoolID, amount *big.Int) error {
	if amount == nil {
		return fmt.Errorf("credit amount is nil")
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("credit amount is negative: %s", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin credit: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO point_balances (account, pool_id, points, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, now(), now())
		ON CONFLICT (account, pool_id)
		DO UPDATE SET
			points = point_balances.points + EXCLUDED.points,
			updated_at = now()
	`, normalizeHex(account.Hex()), normalizeHex(pool.Hex()), amount.String())
	if err != nil {
		return fmt.Errorf("upsert balance: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO pool_points (pool_id, total_points, created_at, updated_at)
		VALUES ($1, $2::numeric, now(), now())
		ON CONFLICT (pool_id)
		DO UPDATE SET
			total_points = pool_points.total_points + EXCLUDED.total_points,
			updated_at = now()
	`, normalizeHex(pool.Hex()), amount.String())
	if err != nil {
		return fmt.Errorf("upsert pool total: %w", err)
	}

	return tx.Commit(ctx)
}

// BalanceOf returns the accrued points for (account, pool), zero when no
// entry exists.
func (s *Store) BalanceOf(ctx context.Context, account common.Address, pool model.PoolID) (*big.Int, error) {
	var value string
	row := s.pool.QueryRow(ctx, `
		SELECT points::text FROM point_balances WHERE account=$1 AND pool_id=$2
	`, normalizeHex(account.Hex()), normalizeHex(pool.Hex()))
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return model.ParseBig(value)
}

// TotalByPool returns the cumulative points issued in the pool, zero when no
// entry exists.
func (s *Store) TotalByPool(ctx context.Context, pool model.PoolID) (*big.Int, error) {
	var value string
	row := s.pool.QueryRow(ctx, `
		SELECT total_points::text FROM pool_points WHERE pool_id=$1
	`, normalizeHex(pool.Hex()))
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return big.NewInt(0), nil
		}
		return nil, err
	}
	return model.ParseBig(value)
}

// LoadState returns last_processed_seq for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var seq uint64
	row := s.pool.QueryRow(ctx, `SELECT last_processed_seq FROM accrual_state WHERE name=$1`, name)
	if err := row.Scan(&seq); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return seq, true, nil
}

// SaveState upserts last_processed_seq for a name.
func (s *Store) SaveState(ctx context.Context, name string, seq uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO accrual_state (name, last_processed_seq, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed_seq = EXCLUDED.last_processed_seq, updated_at = now()
	`, name, seq)
	return err
}

func normalizeHex(value string) string {
	return strings.ToLower(value)
}
