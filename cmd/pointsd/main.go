package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	root := &cobra.Command{
		Use:          "pointsd",
		Short:        "Swap loyalty points accountant",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	accrueCmd := &cobra.Command{
		Use:   "accrue",
		Short: "Replay trade notifications into the points ledger",
		RunE:  runAccrue,
	}

	accrueCmd.Flags().String("in", "", "input trade notifications JSONL")
	accrueCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	accrueCmd.Flags().Int("batch-size", 1000, "records between state saves")
	accrueCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	accrueCmd.Flags().String("failed", "./data/failed_notifications.jsonl", "quarantine JSONL for rejected records")
	accrueCmd.Flags().Int("connect-retries", 5, "maximum store connection attempts")
	accrueCmd.Flags().Duration("connect-backoff", 500*time.Millisecond, "initial store connection backoff")
	accrueCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(accrueCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the points query API",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
