package accrue

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"pointscope/internal/hook"
	"pointscope/internal/model"
	"pointscope/internal/storage"
)

// Config controls replay behavior.
type Config struct {
	BatchSize  int
	StateStore StateStore
}

// Summary reports the outcome of one replay run. Credited counts ledger
// mutations; Skipped counts hook no-ops (wrong direction, no recipient, and
// so on); Resumed counts records already covered by the saved sequence.
type Summary struct {
	Total        int
	Credited     int
	Skipped      int
	Resumed      int
	Failed       int
	LastSequence uint64
}

// Runner replays captured trade notifications through the points hook. Each
// line of the input is one TradeNotification; records already covered by the
// saved sequence are skipped, records the hook rejects are quarantined.
type Runner struct {
	cfg    Config
	hook   *hook.PointsHook
	failed storage.NotificationSink
	logger *zap.Logger
}

// NewRunner builds a Runner. The failed sink is optional.
func NewRunner(cfg Config, pointsHook *hook.PointsHook, failed storage.NotificationSink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:    cfg,
		hook:   pointsHook,
		failed: failed,
		logger: logger,
	}
}

// Run executes replay over a notifications JSONL file.
func (r *Runner) Run(ctx context.Context, inputPath string) (Summary, error) {
	var sum Summary
	if r.hook == nil {
		return sum, fmt.Errorf("points hook is nil")
	}
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	startSeq, err := r.loadStartSequence(ctx)
	if err != nil {
		return sum, err
	}

	file, err := os.Open(inputPath)
	if err != nil {
		return sum, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	maxSeq := startSeq
	sinceSave := 0

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return sum, ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		sum.Total++

		var note model.TradeNotification
		if err := json.Unmarshal(line, &note); err != nil {
			sum.Failed++
			r.logger.Warn("decode notification", zap.Error(err))
			continue
		}

		if note.Sequence == 0 {
			// Unsequenced records can never be covered by the saved
			// sequence, so a rerun would credit them again.
			if r.cfg.StateStore != nil {
				sum.Failed++
				r.quarantine(note)
				r.logger.Warn("notification missing sequence", zap.String("sender", note.Sender))
				continue
			}
		} else if note.Sequence <= startSeq {
			sum.Resumed++
			continue
		}

		outcome, err := r.hook.Process(ctx, &note)
		if err != nil {
			sum.Failed++
			r.quarantine(note)
			r.logger.Warn("accrue notification",
				zap.Error(err),
				zap.Uint64("sequence", note.Sequence),
			)
			continue
		}
		if outcome.Credited {
			sum.Credited++
		} else {
			sum.Skipped++
		}

		if note.Sequence > maxSeq {
			maxSeq = note.Sequence
		}

		sinceSave++
		if sinceSave >= r.cfg.BatchSize {
			if err := r.saveState(ctx, maxSeq); err != nil {
				return sum, err
			}
			sinceSave = 0
		}
	}

	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("scan input: %w", err)
	}

	if err := r.saveState(ctx, maxSeq); err != nil {
		return sum, err
	}
	sum.LastSequence = maxSeq

	r.logger.Info("accrue complete",
		zap.Int("total", sum.Total),
		zap.Int("credited", sum.Credited),
		zap.Int("skipped", sum.Skipped),
		zap.Int("resumed", sum.Resumed),
		zap.Int("failed", sum.Failed),
		zap.Uint64("last_sequence", sum.LastSequence),
	)

	return sum, nil
}

func (r *Runner) loadStartSequence(ctx context.Context) (uint64, error) {
	if r.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := r.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (r *Runner) saveState(ctx context.Context, seq uint64) error {
	if r.cfg.StateStore == nil {
		return nil
	}
	return r.cfg.StateStore.Save(ctx, seq)
}

func (r *Runner) quarantine(note model.TradeNotification) {
	if r.failed == nil {
		return
	}
	if err := r.failed.PutNotificationBatch([]model.TradeNotification{note}); err != nil {
		r.logger.Warn("quarantine notification", zap.Error(err), zap.Uint64("sequence", note.Sequence))
	}
}
