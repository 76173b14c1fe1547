package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"swapexec/internal/broadcast"
	"swapexec/internal/config"
	"swapexec/internal/coordinator"
	"swapexec/internal/event"
	"swapexec/internal/gate"
	"swapexec/internal/metrics"
	"swapexec/internal/node"
	"swapexec/internal/registry"
	"swapexec/internal/swap"
	"swapexec/internal/syncer"
)

// app is the wired validation and execution pipeline shared by commands.
type app struct {
	metrics     *metrics.Metrics
	node        *node.Client
	executor    *broadcast.Executor
	gate        *gate.Gate
	coordinator *coordinator.Coordinator

	closers []func()
}

// newApp wires the pipeline. Broadcasting is enabled only when cfg.RPCURL is set.
func newApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*app, error) {
	a := &app{metrics: metrics.New("")}

	reg, err := registry.Open(ctx, registry.Options{
		Backend:       cfg.Registry,
		FilePath:      cfg.RegistryFile,
		PGDSN:         cfg.PGDSN,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		RedisKey:      cfg.RedisKey,
	})
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	a.closers = append(a.closers, reg.Close)

	var dispatcher gate.Dispatcher
	if cfg.RPCURL != "" {
		nodeClient, err := node.NewClient(ctx, cfg.RPCURL, cfg.RPCUser, cfg.RPCPassword)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect rpc: %w", err)
		}
		a.node = nodeClient
		a.closers = append(a.closers, nodeClient.Close)

		publisher, err := event.Open(ctx, event.Options{
			Kind:          cfg.Events,
			RedisAddr:     cfg.RedisAddr,
			RedisPassword: cfg.RedisPassword,
			RedisDB:       cfg.RedisDB,
			KafkaBrokers:  cfg.KafkaBrokers,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open events: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("close event publisher", zap.Error(err))
			}
		})

		var journal event.Publisher
		if cfg.Journal != "" {
			journal = event.NewJournal(cfg.Journal)
		}

		executor, err := broadcast.NewExecutor(nodeClient, journal, publisher, broadcast.Options{
			MaxRetries:   cfg.MaxRetries,
			RetryBackoff: cfg.RetryBackoff,
			Topic:        cfg.EventsTopic,
		}, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.executor = executor
		dispatcher = executor
	}

	a.gate = gate.New(dispatcher, logger, a.metrics)

	decoder, err := swap.NewEnvelopeDecoder()
	if err != nil {
		a.Close()
		return nil, err
	}

	coord, err := coordinator.New(coordinator.Config{
		DecodeTimeout: cfg.DecodeTimeout,
		UpdateBuffer:  cfg.UpdateBuffer,
	}, coordinator.Deps{
		Decoder: decoder,
		Wallet:  swap.WalletContext{NativeAsset: cfg.NativeAsset, Network: cfg.Network},
		Gate:    a.gate,
		Syncer:  syncer.New(reg, cfg.NativeAsset, logger, a.metrics),
		Logger:  logger,
		Metrics: a.metrics,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.coordinator = coord
	a.closers = append(a.closers, coord.Close)

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
