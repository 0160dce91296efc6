// Package worker implements the long-running accounting worker command: it
// wires the repositories, caches and use cases, and drives the sweep
// scheduler until shutdown.
package worker

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/meterd-io/meterd/internal/application/traffic/usecases"
	"github.com/meterd-io/meterd/internal/infrastructure/billing"
	"github.com/meterd-io/meterd/internal/infrastructure/cache"
	"github.com/meterd-io/meterd/internal/infrastructure/config"
	"github.com/meterd-io/meterd/internal/infrastructure/database"
	"github.com/meterd-io/meterd/internal/infrastructure/repository"
	"github.com/meterd-io/meterd/internal/infrastructure/scheduler"
	"github.com/meterd-io/meterd/internal/shared/biztime"
	"github.com/meterd-io/meterd/internal/shared/logger"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the traffic accounting worker",
		Long:  `Start the accounting worker: the periodic threshold enforcer sweep, the daily counter reset sweep and the usage audit cleanup.`,
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(&cfg.Logger); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.NewLogger()

	if err := biztime.Init(cfg.Traffic.Timezone); err != nil {
		return fmt.Errorf("failed to initialize business timezone: %w", err)
	}

	gdb, err := database.Open(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close(gdb)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(cmd.Context()).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Infow("redis connection established", "address", cfg.Redis.Addr())

	serviceRepo := repository.NewServiceRepository(gdb, log)
	usageRepo := repository.NewUsageRecordRepository(gdb, log)

	fieldCache := cache.NewRedisServiceFieldCache(redisClient, cfg.Traffic.FieldTTL, log)
	listCache := cache.NewRedisNodeListCache(redisClient, cfg.Traffic.NodeListTTL, log)
	billingGateway := billing.NewHTTPGateway(&cfg.Billing, log)

	evaluator := usecases.NewEvaluateServiceUseCase(serviceRepo, fieldCache, listCache, log)
	resetter := usecases.NewResetServiceUseCase(serviceRepo, billingGateway, evaluator, cfg.Traffic.ResetPolicy, log)

	evaluateSweep := usecases.NewEvaluateSweepUseCase(serviceRepo, evaluator, log)
	resetSweep := usecases.NewResetSweepUseCase(serviceRepo, resetter, cfg.Traffic.SweepWorkers, log)
	usagePurge := usecases.NewPurgeUsageRecordsUseCase(usageRepo, cfg.Traffic.UsageRetention, log)

	manager, err := scheduler.NewSchedulerManager(log)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	if err := manager.RegisterEvaluateSweep(evaluateSweep, cfg.Traffic.EvaluateSweepInterval); err != nil {
		return fmt.Errorf("failed to register evaluate sweep: %w", err)
	}
	if err := manager.RegisterResetSweep(resetSweep, cfg.Traffic.ResetSweepCron); err != nil {
		return fmt.Errorf("failed to register reset sweep: %w", err)
	}
	if cfg.Traffic.AuditUsage {
		if err := manager.RegisterUsagePurge(usagePurge); err != nil {
			return fmt.Errorf("failed to register usage purge: %w", err)
		}
	}

	manager.Start()
	log.Infow("accounting worker started",
		"reset_policy", cfg.Traffic.ResetPolicy,
		"evaluate_interval", cfg.Traffic.EvaluateSweepInterval,
		"reset_cron", cfg.Traffic.ResetSweepCron,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Infow("shutting down accounting worker")
	if err := manager.Stop(); err != nil {
		log.Errorw("scheduler shutdown failed", "error", err)
		return err
	}

	log.Infow("accounting worker exited gracefully")
	return nil
}
