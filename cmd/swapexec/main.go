package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var errSwapInvalid = errors.New("swap is not valid")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "swapexec",
		Short:        "Validate and execute partially signed swap transactions",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Decode a swap payload and describe the trade",
		RunE:  runValidate,
	}
	validateCmd.Flags().String("hex", "", "swap payload hex")
	validateCmd.Flags().String("in", "", "file holding the swap payload, - for stdin")
	addSwapFlags(validateCmd)

	root.AddCommand(validateCmd)

	executeCmd := &cobra.Command{
		Use:   "execute",
		Short: "Validate a swap payload and broadcast its transaction",
		RunE:  runExecute,
	}
	executeCmd.Flags().String("hex", "", "swap payload hex")
	executeCmd.Flags().String("in", "", "file holding the swap payload, - for stdin")
	addSwapFlags(executeCmd)
	addBroadcastFlags(executeCmd)

	root.AddCommand(executeCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Validate payloads read line by line from stdin",
		Long: "Each stdin line replaces the current swap input. " +
			"The commands :execute, :clear and :quit act on the armed swap.",
		RunE: runWatch,
	}
	addSwapFlags(watchCmd)
	addBroadcastFlags(watchCmd)
	watchCmd.Flags().Int("update-buffer", 16, "pending validation updates before new ones are dropped")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")

	root.AddCommand(watchCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List executions recorded in the journal",
		RunE:  runHistory,
	}
	historyCmd.Flags().String("journal", "./data/executions.jsonl", "execution journal JSONL")
	historyCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(historyCmd)

	return root
}

func addSwapFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("native-asset", "rvn", "native currency of the wallet")
	flags.String("network", "mainnet", "network name")
	flags.Duration("decode-timeout", 5*time.Second, "maximum wait for a payload decode")
	flags.String("registry", "memory", "asset registry backend (memory, file, postgres, redis)")
	flags.String("registry-file", "./data/assets.json", "asset snapshot for the file registry")
	flags.String("pg-dsn", "", "Postgres DSN for the postgres registry")
	flags.String("redis-addr", "", "Redis address for the redis registry or events")
	flags.String("redis-password", "", "Redis password")
	flags.Int("redis-db", 0, "Redis database")
	flags.String("redis-key", "swapexec:assets", "Redis set holding registered assets")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
}

func addBroadcastFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("rpc", "", "node JSON-RPC URL")
	flags.String("rpc-user", "", "node RPC user")
	flags.String("rpc-password", "", "node RPC password")
	flags.Int("max-retries", 5, "maximum broadcast retry attempts")
	flags.Duration("retry-backoff", 500*time.Millisecond, "initial broadcast retry backoff")
	flags.String("journal", "./data/executions.jsonl", "execution journal JSONL, empty to disable")
	flags.String("events", "none", "execution event publisher (none, redis, kafka)")
	flags.String("events-topic", "swapexec.executions", "topic or stream for execution events")
	flags.StringSlice("kafka-brokers", nil, "Kafka brokers (comma-separated)")
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
