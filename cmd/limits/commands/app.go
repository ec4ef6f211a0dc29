package commands

import (
	"context"
	"fmt"

	"github.com/wonny/storagelimits/internal/contracts"
	"github.com/wonny/storagelimits/internal/metrics"
	"github.com/wonny/storagelimits/internal/pipeline"
	"github.com/wonny/storagelimits/internal/s0_snapshot"
	"github.com/wonny/storagelimits/internal/s3_publish"
	"github.com/wonny/storagelimits/pkg/config"
	"github.com/wonny/storagelimits/pkg/database"
	"github.com/wonny/storagelimits/pkg/logger"
	"github.com/wonny/storagelimits/pkg/objectstore"
	"github.com/wonny/storagelimits/pkg/redis"
)

const keyPrefix = "storagelimits"

// app holds the wired dependencies shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	store   objectstore.Store
	metrics *metrics.Metrics
	runner  *pipeline.Runner

	closers []func()
}

// loadConfig loads the configuration and applies the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newApp connects every backend and assembles the export pipeline
func newApp(ctx context.Context) (_ *app, err error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger.New(cfg)}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	// 1. Database
	if a.db, err = database.New(cfg); err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, a.db.Close)

	// 2. Redis (비활성화 가능)
	if a.redis, err = redis.New(cfg); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.redis.Close() })

	// 3. Object store
	if a.store, err = objectstore.New(ctx, cfg.Storage); err != nil {
		return nil, fmt.Errorf("init object store: %w", err)
	}
	a.closers = append(a.closers, func() { _ = a.store.Close() })

	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	// 4. Publisher
	resolver := s3_publish.NewPostgresResolver(
		a.db.Pool,
		redis.NewCache(a.redis, keyPrefix),
		cfg.Export.ContractCode,
		cfg.Export.ContractFamily,
	)

	var numberer s3_publish.DocumentNumberer
	switch cfg.SequenceBackend {
	case "redis":
		numberer = s3_publish.NewRedisSequence(redis.NewSequence(a.redis, keyPrefix))
	default:
		numberer = s3_publish.NewPostgresSequence(a.db.Pool, cfg.Export.Author)
	}

	publisher := s3_publish.NewPublisher(resolver, numberer, a.store, s3_publish.Config{
		Sender: cfg.Export.Sender,
		Prefix: cfg.Storage.Prefix,
	}, a.metrics, a.log)

	// 5. Runner
	loader := s0_snapshot.NewLoader(s0_snapshot.NewRepository(a.db.Pool), a.log)
	a.runner = pipeline.NewRunner(loader, publisher, pipeline.Options{
		Author:   cfg.Export.Author,
		Formats:  contracts.ParseFormats(cfg.Export.Formats),
		Grouping: contracts.ParseGrouping(cfg.Export.Grouping),
		Timeout:  cfg.Export.RunTimeout,
	}, a.metrics, a.log)

	a.log.WithFields(map[string]interface{}{
		"storage":  cfg.Storage.Backend,
		"bucket":   cfg.Storage.Bucket,
		"sequence": cfg.SequenceBackend,
		"redis":    a.redis.Enabled(),
		"formats":  cfg.Export.Formats,
	}).Debug("Exporter initialized")

	return a, nil
}

// Close releases the backends in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
