package cmd

import (
	"context"
	"fmt"

	"github.com/sander-remitly/plandash/internal/cache"
	"github.com/sander-remitly/plandash/internal/config"
	"github.com/sander-remitly/plandash/internal/gateway"
	"github.com/sander-remitly/plandash/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the wiring shared by every command
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	cache   *cache.Cache
	gateway *gateway.Client
}

// bootstrap loads the configuration and builds the logger, the cache and the
// optimization service client
func bootstrap(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return nil, err
	}
	if verbose && !cmd.Flags().Changed("log-level") {
		cfg.Log.Level = "debug"
	}

	log, err := logger.New(logger.Options{
		Development: cfg.Development(),
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
	})
	if err != nil {
		return nil, err
	}

	cacheInstance := cache.New(ctx, cache.Config{
		Enabled:  cfg.Redis.Enabled,
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	}, log.Named("cache"))

	var opts []gateway.Option
	if cacheInstance.IsEnabled() {
		opts = append(opts, gateway.WithCache(cacheInstance))
	}

	client, err := gateway.New(gateway.Config{
		BaseURL:            cfg.Service.BaseURL,
		Timeout:            cfg.Service.Timeout,
		BreakerFailures:    cfg.Breaker.Failures,
		BreakerOpenTimeout: cfg.Breaker.OpenTimeout,
	}, log.Named("gateway"), opts...)
	if err != nil {
		cacheInstance.Close()
		return nil, fmt.Errorf("failed to create optimization service client: %w", err)
	}

	log.Debug("Configuration loaded",
		zap.String("service_url", client.BaseURL()),
		zap.Bool("cache", cacheInstance.IsEnabled()),
	)

	return &app{cfg: cfg, log: log, cache: cacheInstance, gateway: client}, nil
}

// Close releases the cache and flushes the logger
func (a *app) Close() {
	if err := a.cache.Close(); err != nil {
		a.log.Warn("Failed to close cache", zap.Error(err))
	}
	logger.Sync(a.log)
}
