package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapexec/internal/config"
)

func runValidate(cmd *cobra.Command, _ []string) error {
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

	hexValue, _ := cmd.Flags().GetString("hex")
	inPath, _ := cmd.Flags().GetString("in")
	raw, err := readInput(cmd.InOrStdin(), hexValue, inPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// validate never broadcasts.
	cfg.RPCURL = ""
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Debug("validate start",
		zap.String("native_asset", cfg.NativeAsset),
		zap.String("registry", cfg.Registry),
		zap.Duration("decode_timeout", cfg.DecodeTimeout),
	)

	outcome := a.coordinator.OnInputChanged(ctx, raw)
	printOutcome(cmd.OutOrStdout(), outcome, a.coordinator.Description())
	if !outcome.IsValid() {
		return errSwapInvalid
	}
	return nil
}
