package impl_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/domain/service"
	"nutrisync/internal/usecase"

	"github.com/stretchr/testify/mock"
)

var errSnapshotUnavailable = errors.New("no snapshot available")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockDiaryRepository struct {
	mock.Mock
}

func (m *MockDiaryRepository) GetOrCreate(ctx context.Context, userID, date string) (*entity.DailyAggregate, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyAggregate), args.Error(1)
}

func (m *MockDiaryRepository) AddFoodToMeal(ctx context.Context, userID, date string, meal entity.MealType, entry entity.FoodEntry) (*entity.DailyAggregate, error) {
	args := m.Called(ctx, userID, date, meal, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyAggregate), args.Error(1)
}

func (m *MockDiaryRepository) RemoveFoodFromMeal(ctx context.Context, userID, date, entryID string) (*entity.DailyAggregate, error) {
	args := m.Called(ctx, userID, date, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyAggregate), args.Error(1)
}

func (m *MockDiaryRepository) UpdateFoodInMeal(ctx context.Context, userID, date string, entry entity.FoodEntry) (*entity.DailyAggregate, error) {
	args := m.Called(ctx, userID, date, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.DailyAggregate), args.Error(1)
}

func (m *MockDiaryRepository) UpdateNutrition(ctx context.Context, userID, date string, nutrition entity.NutritionInfo, op repository.NutritionOp) error {
	args := m.Called(ctx, userID, date, nutrition, op)
	return args.Error(0)
}

func (m *MockDiaryRepository) AddWater(ctx context.Context, userID, date string, glasses int) error {
	args := m.Called(ctx, userID, date, glasses)
	return args.Error(0)
}

func (m *MockDiaryRepository) UpdateWater(ctx context.Context, userID, date string, glasses int) error {
	args := m.Called(ctx, userID, date, glasses)
	return args.Error(0)
}

func (m *MockDiaryRepository) UpdateTargets(ctx context.Context, userID, date string, targets entity.NutritionTargets) error {
	args := m.Called(ctx, userID, date, targets)
	return args.Error(0)
}

func (m *MockDiaryRepository) UpdateActivity(ctx context.Context, userID, date string, steps, activeMinutes, workouts int, sleepHours float64) error {
	args := m.Called(ctx, userID, date, steps, activeMinutes, workouts, sleepHours)
	return args.Error(0)
}

func (m *MockDiaryRepository) Watch(ctx context.Context, userID, date string) (repository.DiarySubscription, error) {
	args := m.Called(ctx, userID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.DiarySubscription), args.Error(1)
}

type MockQueueUsecase struct {
	mock.Mock
}

func (m *MockQueueUsecase) Enqueue(ctx context.Context, op *entity.QueuedOperation) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockQueueUsecase) Pending(ctx context.Context) ([]*entity.QueuedOperation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entity.QueuedOperation), args.Error(1)
}

func (m *MockQueueUsecase) Status(ctx context.Context) (*usecase.QueueStatus, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.QueueStatus), args.Error(1)
}

func (m *MockQueueUsecase) Flush(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockQueueUsecase) Start(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockQueueUsecase) Stop() {
	m.Called()
}

// fakeSubscription is a controllable DiarySubscription for synchronizer tests.
type fakeSubscription struct {
	updates chan *entity.DailyAggregate
	once    sync.Once
	closed  atomic.Bool
}

func newFakeSubscription() *fakeSubscription {
	return &fakeSubscription{updates: make(chan *entity.DailyAggregate, 4)}
}

func (f *fakeSubscription) Updates() <-chan *entity.DailyAggregate { return f.updates }

func (f *fakeSubscription) Close() {
	f.once.Do(func() {
		f.closed.Store(true)
		close(f.updates)
	})
}

func (f *fakeSubscription) push(agg *entity.DailyAggregate) { f.updates <- agg }

// stubConnectivity is a controllable ConnectivityMonitor.
type stubConnectivity struct {
	mu     sync.Mutex
	online bool
	subs   []chan bool
}

func newStubConnectivity(online bool) *stubConnectivity {
	return &stubConnectivity{online: online}
}

func (s *stubConnectivity) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *stubConnectivity) Subscribe() (<-chan bool, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan bool, 4)
	s.subs = append(s.subs, ch)
	return ch, func() {}
}

func (s *stubConnectivity) setOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
	for _, ch := range s.subs {
		ch <- online
	}
}

// fakeQueueRepository is an in-memory QueueRepository.
type fakeQueueRepository struct {
	mu    sync.Mutex
	ops   []*entity.QueuedOperation
	saves int
}

func (f *fakeQueueRepository) Save(_ context.Context, ops []*entity.QueuedOperation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append([]*entity.QueuedOperation(nil), ops...)
	f.saves++
	return nil
}

func (f *fakeQueueRepository) Load(_ context.Context) ([]*entity.QueuedOperation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.QueuedOperation(nil), f.ops...), nil
}

func (f *fakeQueueRepository) stored() []*entity.QueuedOperation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.QueuedOperation(nil), f.ops...)
}

// fakePublisher records published sync events and signals each one.
type fakePublisher struct {
	events chan *service.SyncEvent
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{events: make(chan *service.SyncEvent, 16)}
}

func (f *fakePublisher) PublishSyncEvent(_ context.Context, event *service.SyncEvent) error {
	f.events <- event
	return nil
}

func (f *fakePublisher) Close() error { return nil }

// stubSync applies optimistic mutations against an in-memory aggregate.
// applyErr, when set, makes every ApplyOptimistic call fail.
type stubSync struct {
	mu       sync.Mutex
	current  *entity.DailyAggregate
	applied  int
	applyErr error
}

func (s *stubSync) SetSelectedDate(_ context.Context, _, _ string) error { return nil }

func (s *stubSync) Snapshot(_ context.Context, _ string) (*entity.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil, errSnapshotUnavailable
	}
	return s.current, nil
}

func (s *stubSync) Subscribe(_ context.Context, _ string) (<-chan *entity.DailyAggregate, func(), error) {
	return nil, nil, errSnapshotUnavailable
}

func (s *stubSync) ApplyOptimistic(_ context.Context, userID, date string, mutate func(*entity.DailyAggregate)) (*entity.DailyAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	base := s.current
	if base == nil || base.Date != date {
		base = entity.NewDailyAggregate(userID, date, entity.DefaultNutritionTargets())
	}
	mutate(base)
	s.current = base
	s.applied++
	return base, nil
}

func (s *stubSync) CloseSession(_ context.Context, _ string) error { return nil }
