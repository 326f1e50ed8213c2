package impl

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/domain/service"
	"nutrisync/internal/errors"
	"nutrisync/internal/usecase"
)

// applyTimeout bounds one replay attempt against the remote store.
const applyTimeout = 30 * time.Second

type queueService struct {
	queueRepo    repository.QueueRepository
	diaryRepo    repository.DiaryRepository
	connectivity service.ConnectivityMonitor
	publisher    service.EventPublisher
	retryBackoff time.Duration
	maxRetries   int
	logger       *slog.Logger

	mu      sync.Mutex
	pending []*entity.QueuedOperation

	wake   chan struct{}
	stop   chan struct{}
	done   chan struct{}
	cancel func()

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewQueueService creates the offline operation queue. Queued operations are
// replayed strictly in arrival order, one at a time. The head operation is
// retried with a fixed backoff until it applies or exhausts its retries; the
// queue never reorders around a failing head.
func NewQueueService(
	queueRepo repository.QueueRepository,
	diaryRepo repository.DiaryRepository,
	connectivity service.ConnectivityMonitor,
	publisher service.EventPublisher,
	retryBackoff time.Duration,
	maxRetries int,
	logger *slog.Logger,
) usecase.QueueUsecase {
	if maxRetries <= 0 {
		maxRetries = entity.DefaultMaxRetries
	}

	return &queueService{
		queueRepo:    queueRepo,
		diaryRepo:    diaryRepo,
		connectivity: connectivity,
		publisher:    publisher,
		retryBackoff: retryBackoff,
		maxRetries:   maxRetries,
		logger:       logger,
		wake:         make(chan struct{}, 1),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start loads the persisted queue and launches the replay worker.
func (s *queueService) Start(ctx context.Context) error {
	var startErr error
	s.startOnce.Do(func() {
		pending, err := s.queueRepo.Load(ctx)
		if err != nil {
			startErr = errors.Wrap(err, "failed to load offline queue")

			return
		}

		s.mu.Lock()
		s.pending = pending
		s.mu.Unlock()

		if len(pending) > 0 {
			s.logger.Info("Offline queue restored",
				slog.Int("pending", len(pending)),
			)
		}

		online, cancel := s.connectivity.Subscribe()
		s.cancel = cancel

		go s.run(online)
	})

	return startErr
}

// Stop halts the replay worker and waits for it to exit.
func (s *queueService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Enqueue appends the operation and persists the pending list.
func (s *queueService) Enqueue(ctx context.Context, op *entity.QueuedOperation) error {
	op.MaxRetries = s.maxRetries

	s.mu.Lock()
	s.pending = append(s.pending, op)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.queueRepo.Save(ctx, snapshot); err != nil {
		return err
	}

	s.logger.Info("Operation queued for later sync",
		slog.String("operation_id", op.ID),
		slog.String("type", string(op.Type)),
		slog.Int("pending", len(snapshot)),
	)

	s.wakeWorker()

	return nil
}

// Pending returns a copy of the current pending list, oldest first.
func (s *queueService) Pending(_ context.Context) ([]*entity.QueuedOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snapshotLocked(), nil
}

// Status reports queue depth and connectivity.
func (s *queueService) Status(_ context.Context) (*usecase.QueueStatus, error) {
	s.mu.Lock()
	depth := len(s.pending)
	s.mu.Unlock()

	return &usecase.QueueStatus{
		Pending: depth,
		Online:  s.connectivity.IsOnline(),
	}, nil
}

// Flush wakes the worker to drain the queue now.
func (s *queueService) Flush(_ context.Context) error {
	s.wakeWorker()

	return nil
}

func (s *queueService) wakeWorker() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *queueService) snapshotLocked() []*entity.QueuedOperation {
	snapshot := make([]*entity.QueuedOperation, len(s.pending))
	copy(snapshot, s.pending)

	return snapshot
}

func (s *queueService) head() *entity.QueuedOperation {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		return nil
	}

	return s.pending[0]
}

func (s *queueService) popHead(op *entity.QueuedOperation) {
	s.mu.Lock()
	if len(s.pending) > 0 && s.pending[0].ID == op.ID {
		s.pending = s.pending[1:]
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snapshot)
}

func (s *queueService) persist(snapshot []*entity.QueuedOperation) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	if err := s.queueRepo.Save(ctx, snapshot); err != nil {
		s.logger.Error("Failed to persist offline queue",
			slog.String("error", err.Error()),
		)
	}
}

// run is the replay loop. It processes the head of the queue only while
// online; a connectivity loss halts replay until the next online transition.
func (s *queueService) run(online <-chan bool) {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			return
		default:
		}

		if !s.connectivity.IsOnline() {
			if !s.waitOnline(online) {
				return
			}

			continue
		}

		op := s.head()
		if op == nil {
			select {
			case <-s.stop:
				return
			case <-s.wake:
			case <-online:
			}

			continue
		}

		s.processHead(op, online)
	}
}

// waitOnline blocks until connectivity returns. Reports false on shutdown.
func (s *queueService) waitOnline(online <-chan bool) bool {
	for {
		select {
		case <-s.stop:
			return false
		case state := <-online:
			if state {
				return true
			}
		}
	}
}

func (s *queueService) processHead(op *entity.QueuedOperation, online <-chan bool) {
	err := s.apply(op)
	if err == nil {
		s.popHead(op)
		s.publishOutcome(op, service.SyncOutcomeApplied)
		s.logger.Info("Queued operation applied",
			slog.String("operation_id", op.ID),
			slog.String("type", string(op.Type)),
		)

		return
	}

	if errors.Is(err, repository.ErrEntryNotFound) {
		// The target entry no longer exists remotely; retrying cannot help.
		s.popHead(op)
		s.publishOutcome(op, service.SyncOutcomeDropped)
		s.logger.Warn("Queued operation dropped, target entry gone",
			slog.String("operation_id", op.ID),
			slog.String("type", string(op.Type)),
		)

		return
	}

	s.mu.Lock()
	op.RetryCount++
	snapshot := s.snapshotLocked()
	exhausted := op.Exhausted()
	s.mu.Unlock()
	s.persist(snapshot)

	if exhausted {
		s.popHead(op)
		s.publishOutcome(op, service.SyncOutcomeDropped)
		s.logger.Error("Queued operation dropped after exhausting retries",
			slog.String("operation_id", op.ID),
			slog.String("type", string(op.Type)),
			slog.Int("attempts", op.RetryCount),
			slog.String("error", err.Error()),
		)

		return
	}

	s.logger.Warn("Queued operation failed, will retry",
		slog.String("operation_id", op.ID),
		slog.String("type", string(op.Type)),
		slog.Int("retry_count", op.RetryCount),
		slog.String("error", err.Error()),
	)

	// Fixed backoff before the next attempt; an offline transition during
	// the wait halts replay at the top of the loop.
	select {
	case <-s.stop:
	case <-time.After(s.retryBackoff):
	case state := <-online:
		if !state {
			return
		}
	}
}

// apply replays one queued operation against the remote store.
func (s *queueService) apply(op *entity.QueuedOperation) error {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	switch op.Type {
	case entity.OpAddFood:
		payload, err := op.FoodData()
		if err != nil {
			return err
		}
		_, err = s.diaryRepo.AddFoodToMeal(ctx, op.UserID, op.Date, payload.MealType, payload.Entry)

		return err

	case entity.OpUpdateFood:
		payload, err := op.FoodData()
		if err != nil {
			return err
		}
		_, err = s.diaryRepo.UpdateFoodInMeal(ctx, op.UserID, op.Date, payload.Entry)

		return err

	case entity.OpRemoveFood:
		payload, err := op.FoodData()
		if err != nil {
			return err
		}
		_, err = s.diaryRepo.RemoveFoodFromMeal(ctx, op.UserID, op.Date, payload.EntryID)

		return err

	case entity.OpAddWater:
		payload, err := op.WaterData()
		if err != nil {
			return err
		}

		return s.diaryRepo.AddWater(ctx, op.UserID, op.Date, payload.Glasses)

	case entity.OpUpdateWater:
		payload, err := op.WaterData()
		if err != nil {
			return err
		}

		return s.diaryRepo.UpdateWater(ctx, op.UserID, op.Date, payload.Glasses)

	default:
		return errors.Errorf("unknown operation type: %s", op.Type)
	}
}

func (s *queueService) publishOutcome(op *entity.QueuedOperation, outcome string) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	event := &service.SyncEvent{
		OperationID: op.ID,
		UserID:      op.UserID,
		Date:        op.Date,
		Type:        string(op.Type),
		Outcome:     outcome,
		Attempts:    op.RetryCount,
		OccurredAt:  time.Now().UTC(),
	}

	if err := s.publisher.PublishSyncEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish sync event",
			slog.String("operation_id", op.ID),
			slog.String("outcome", outcome),
			slog.String("error", err.Error()),
		)
	}
}
