package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapexec/internal/config"
	"swapexec/internal/event"
	"swapexec/internal/model"
)

func runHistory(cmd *cobra.Command, _ []string) error {
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

	if cfg.Journal == "" {
		return fmt.Errorf("journal path is required")
	}

	records, err := event.ReadJournal(cfg.Journal)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBMITTED\tTYPE\tASSET\tQUANTITY\tTOTAL\tTXID")
	for _, record := range records {
		var exec model.Execution
		if err := json.Unmarshal(record.Payload, &exec); err != nil {
			logger.Warn("skip journal record", zap.String("key", record.Key), zap.Error(err))
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\t%s\n",
			exec.SubmittedAt,
			exec.TradeType,
			exec.Asset,
			exec.Quantity,
			exec.TotalPrice,
			exec.Currency,
			exec.TxID,
		)
	}
	return w.Flush()
}
