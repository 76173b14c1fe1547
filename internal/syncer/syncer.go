package syncer

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"swapexec/internal/metrics"
	"swapexec/internal/model"
	"swapexec/internal/registry"
)

// Syncer makes sure the assets a validated swap touches are in the registry.
type Syncer struct {
	registry registry.Registry
	native   string
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func New(reg registry.Registry, nativeAsset string, logger *zap.Logger, m *metrics.Metrics) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		registry: reg,
		native:   strings.TrimSpace(nativeAsset),
		logger:   logger,
		metrics:  m,
	}
}

// Sync registers the in and out assets of d, skipping the native currency.
// Registry failures are logged and never returned.
func (s *Syncer) Sync(ctx context.Context, d *model.SwapDescriptor) {
	if s == nil || s.registry == nil || d == nil {
		return
	}

	seen := make(map[string]struct{}, 2)
	for _, asset := range []string{d.InType, d.OutType} {
		asset = strings.TrimSpace(asset)
		if asset == "" || strings.EqualFold(asset, s.native) {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		s.ensure(ctx, asset)
	}
}

func (s *Syncer) ensure(ctx context.Context, asset string) {
	known, err := s.registry.Contains(ctx, asset)
	if err != nil {
		s.metrics.RegistryError()
		s.logger.Warn("asset lookup failed", zap.String("asset", asset), zap.Error(err))
		return
	}
	if known {
		return
	}

	if err := s.registry.Register(ctx, asset); err != nil {
		s.metrics.RegistryError()
		s.logger.Warn("asset registration failed", zap.String("asset", asset), zap.Error(err))
		return
	}
	s.metrics.AssetRegistered()
	s.logger.Info("asset added to registry", zap.String("asset", asset))
}
