package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapexec/internal/config"
)

func runExecute(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required")
	}

	hexValue, _ := cmd.Flags().GetString("hex")
	inPath, _ := cmd.Flags().GetString("in")
	raw, err := readInput(cmd.InOrStdin(), hexValue, inPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	height, err := a.node.BlockCount(ctx)
	if err != nil {
		logger.Warn("node height unavailable", zap.Error(err))
	} else {
		logger.Info("node connected", zap.Uint64("height", height))
	}

	out := cmd.OutOrStdout()
	outcome := a.coordinator.OnInputChanged(ctx, raw)
	printOutcome(out, outcome, a.coordinator.Description())
	if !outcome.IsValid() {
		return errSwapInvalid
	}

	d, err := a.gate.Execute(ctx)
	if err != nil {
		return err
	}
	nodeTxID, _ := a.executor.Submitted(d.TxID)
	fmt.Fprintf(out, "Broadcast:   %s\n", nodeTxID)
	return nil
}
