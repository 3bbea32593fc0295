package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pointscope/internal/accrue"
	"pointscope/internal/config"
	"pointscope/internal/hook"
	"pointscope/internal/storage"
	"pointscope/internal/storage/postgres"
)

func runAccrue(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAccrue(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.PGDSN == "" {
		return fmt.Errorf("pg dsn is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *postgres.Store
	err = accrue.WithRetry(ctx, cfg.ConnectRetries, cfg.ConnectBackoff, func(ctx context.Context) error {
		var connectErr error
		store, connectErr = postgres.NewStore(ctx, cfg.PGDSN)
		if connectErr != nil {
			logger.Warn("connect postgres failed", zap.Error(connectErr))
		}
		return connectErr
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	var stateStore accrue.StateStore
	if cfg.StateFile != "" {
		stateStore = &accrue.FileStateStore{Path: cfg.StateFile}
	} else {
		stateStore = &accrue.DBStateStore{Store: store, Name: "accrual"}
	}

	var failedSink storage.NotificationSink
	if cfg.FailedPath != "" {
		failedSink = storage.NewJsonlStorage(cfg.FailedPath)
	}

	pointsHook := hook.New(store, logger)

	runner := accrue.NewRunner(accrue.Config{
		BatchSize:  cfg.BatchSize,
		StateStore: stateStore,
	}, pointsHook, failedSink, logger)

	logger.Info("accrue start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.String("failed", cfg.FailedPath),
	)

	_, err = runner.Run(ctx, cfg.Input)
	return err
}
