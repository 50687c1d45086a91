package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"paycore/internal/application/dto"
	"paycore/internal/infrastructure/config"
	"paycore/internal/infrastructure/di"

	"golang.org/x/sync/errgroup"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags|log.LUTC)
	cfg, cfgErr := config.LoadConfig()
	if cfgErr != nil {
		logger.Printf("startup config error code=%s message=%s metadata=%v", cfgErr.Code, cfgErr.Message, cfgErr.Metadata)
		os.Exit(1)
	}
	if !cfg.WatcherEnabled {
		logger.Printf("watcher config error code=config_watcher_disabled message=WATCHER_ENABLED must be true for watcher runtime")
		os.Exit(1)
	}

	container, buildErr := di.Build(cfg, logger)
	if buildErr != nil {
		logger.Printf("dependency wiring error: %v", buildErr)
		os.Exit(1)
	}
	defer func() {
		if container.Database == nil {
			return
		}
		if err := container.Database.Close(); err != nil {
			logger.Printf("database close warning error=%v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Printf("watcher persistence initialization starting database_target=%s", cfg.DatabaseTarget)
	persistenceErr := container.InitializePersistenceUseCase.Execute(ctx, dto.InitializePersistenceCommand{
		ReadinessTimeout:       cfg.DBReadinessTimeout,
		ReadinessRetryInterval: cfg.DBReadinessRetryInterval,
	})
	if persistenceErr != nil {
		logger.Printf(
			"watcher persistence initialization failed code=%s message=%s metadata=%v",
			persistenceErr.Code,
			persistenceErr.Message,
			persistenceErr.Details,
		)
		os.Exit(1)
	}
	logger.Printf("watcher persistence initialization completed database_target=%s", cfg.DatabaseTarget)

	if len(container.WatchWorkers) == 0 {
		logger.Printf("watcher startup failed code=no_chain_watchers message=no chain providers are configured")
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, worker := range container.WatchWorkers {
		group.Go(func() error {
			worker.Start(groupCtx)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		logger.Printf("watcher stopped with error: %v", err)
		os.Exit(1)
	}
	logger.Printf("watcher stopped")
}
