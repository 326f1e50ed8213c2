package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"nutrisync/config"
	"nutrisync/internal/delivery"
	"nutrisync/internal/delivery/http"
	"nutrisync/internal/delivery/http/middleware"
	"nutrisync/internal/delivery/http/router/handler"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/domain/service"
	"nutrisync/internal/infra/connectivity"
	"nutrisync/internal/infra/persistence/firestore"
	"nutrisync/internal/infra/persistence/sqlite"
	"nutrisync/internal/infra/pubsub"
	"nutrisync/internal/usecase"
	"nutrisync/internal/usecase/impl"

	logs "nutrisync/internal/infra/log"

	"go.uber.org/fx"
)

type startServerParams struct {
	fx.In
	fx.Lifecycle

	Deliveries []delivery.Delivery `group:"deliveries"`
}

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			startQueueWorker,
			startServer,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		sqlite.New,
		firestore.New,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			sqlite.NewQueueRepository,
			firestore.NewTargetsRepository,
			firestore.NewDiaryRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		connectivity.Module,
		pubsub.Module,
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			newSyncService,
			newQueueService,
			impl.NewDiaryService,
		),
	)
}

// newSyncService binds the configured guard window to the synchronizer.
func newSyncService(cfg *config.Config, diaryRepo repository.DiaryRepository, logger *slog.Logger) usecase.SyncUsecase {
	return impl.NewSyncService(diaryRepo, cfg.Sync.GuardTimeout, logger)
}

// newQueueService binds the configured retry backoff to the replay worker.
func newQueueService(
	cfg *config.Config,
	queueRepo repository.QueueRepository,
	diaryRepo repository.DiaryRepository,
	monitor service.ConnectivityMonitor,
	publisher service.EventPublisher,
	logger *slog.Logger,
) usecase.QueueUsecase {
	return impl.NewQueueService(queueRepo, diaryRepo, monitor, publisher, cfg.Sync.RetryBackoff, cfg.Sync.MaxRetries, logger)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewErrorMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewDiaryHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// startQueueWorker ties the offline queue replay worker to the fx lifecycle.
func startQueueWorker(lc fx.Lifecycle, queue usecase.QueueUsecase) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := queue.Start(ctx); err != nil {
				return fmt.Errorf("failed to start offline queue: %w", err)
			}

			return nil
		},
		OnStop: func(ctx context.Context) error {
			queue.Stop()

			return nil
		},
	})
}

func startServer(ctx context.Context, params startServerParams) {
	for _, delivery := range params.Deliveries {
		go func() {
			if err := delivery.Serve(ctx); err != nil {
				slog.Error("Failed to start server", slog.Any("error", err))
				os.Exit(1)
			}
		}()
	}
}
