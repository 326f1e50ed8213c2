package impl_test

import (
	"context"
	"testing"
	"time"

	"nutrisync/internal/domain/entity"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/usecase"
	"nutrisync/internal/usecase/impl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testGuardTimeout = 30 * time.Millisecond

func newSyncService(diaryRepo *MockDiaryRepository) usecase.SyncUsecase {
	return impl.NewSyncService(diaryRepo, testGuardTimeout, testLogger())
}

func waitAggregate(t *testing.T, ch <-chan *entity.DailyAggregate) *entity.DailyAggregate {
	t.Helper()

	select {
	case agg := <-ch:
		return agg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for aggregate update")
		return nil
	}
}

// waitForAggregate skips intermediate views (e.g. the guard placeholder) and
// returns the first aggregate matching the predicate.
func waitForAggregate(t *testing.T, ch <-chan *entity.DailyAggregate, match func(*entity.DailyAggregate) bool) *entity.DailyAggregate {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case agg := <-ch:
			if match(agg) {
				return agg
			}
		case <-deadline:
			t.Fatal("timed out waiting for matching aggregate")
			return nil
		}
	}
}

func TestSyncService_RemoteSnapshotFlowsToSubscribers(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	sub := newFakeSubscription()

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(sub, nil)
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, testDate).
		Return(entity.NewDailyAggregate(testUserID, testDate, entity.DefaultNutritionTargets()), nil).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))

	updates, cancel, err := svc.Subscribe(ctx, testUserID)
	require.NoError(t, err)
	defer cancel()

	remote := entity.NewDailyAggregate(testUserID, testDate, entity.DefaultNutritionTargets())
	remote.Water.Consumed = 3
	sub.push(remote)

	got := waitForAggregate(t, updates, func(agg *entity.DailyAggregate) bool {
		return agg.Water.Consumed == 3
	})
	assert.Equal(t, 3, got.Water.Consumed)

	snapshot, err := svc.Snapshot(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.Water.Consumed)
}

func TestSyncService_GuardTimerInstallsPlaceholder(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	sub := newFakeSubscription()

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(sub, nil)
	// Remote unreachable: no snapshot will ever arrive.
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, testDate).
		Return(nil, repository.ErrRemoteUnavailable).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))

	updates, cancel, err := svc.Subscribe(ctx, testUserID)
	require.NoError(t, err)
	defer cancel()

	placeholder := waitAggregate(t, updates)
	assert.Equal(t, testDate, placeholder.Date)
	assert.Equal(t, entity.DefaultCaloriesTarget, placeholder.Calories.Target)
	assert.Equal(t, entity.DefaultWaterTarget, placeholder.Water.Target)
	assert.Zero(t, placeholder.Calories.Consumed)
	assert.Empty(t, placeholder.AllEntries())
}

func TestSyncService_SnapshotBeforeFirstUpdate(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	sub := newFakeSubscription()

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(sub, nil)
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, testDate).
		Return(nil, repository.ErrRemoteUnavailable).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))

	_, err := svc.Snapshot(ctx, testUserID)
	assert.ErrorIs(t, err, impl.ErrSnapshotPending)
}

func TestSyncService_NoSession(t *testing.T) {
	ctx := context.Background()
	svc := newSyncService(new(MockDiaryRepository))

	_, err := svc.Snapshot(ctx, "nobody")
	assert.ErrorIs(t, err, impl.ErrNoActiveSession)

	_, _, err = svc.Subscribe(ctx, "nobody")
	assert.ErrorIs(t, err, impl.ErrNoActiveSession)
}

func TestSyncService_RejectsMalformedDate(t *testing.T) {
	svc := newSyncService(new(MockDiaryRepository))

	err := svc.SetSelectedDate(context.Background(), testUserID, "10-03-2025")
	assert.ErrorIs(t, err, impl.ErrInvalidDateFormat)
}

func TestSyncService_SwitchingDateClosesPreviousWatch(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	firstSub := newFakeSubscription()
	secondSub := newFakeSubscription()
	nextDate := "2025-03-11"

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(firstSub, nil)
	diaryRepo.On("Watch", mock.Anything, testUserID, nextDate).Return(secondSub, nil)
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, mock.Anything).
		Return(nil, repository.ErrRemoteUnavailable).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, nextDate))

	assert.True(t, firstSub.closed.Load())
	assert.False(t, secondSub.closed.Load())

	// Selecting the already-selected date is a no-op.
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, nextDate))
	assert.False(t, secondSub.closed.Load())
}

func TestSyncService_RemoteWinsOverOptimisticState(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	sub := newFakeSubscription()

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(sub, nil)
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, testDate).
		Return(nil, repository.ErrRemoteUnavailable).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))

	updates, cancel, err := svc.Subscribe(ctx, testUserID)
	require.NoError(t, err)
	defer cancel()

	// Offline change applied locally.
	optimistic, err := svc.ApplyOptimistic(ctx, testUserID, testDate, func(agg *entity.DailyAggregate) {
		agg.AppendEntry(entity.MealLunch, entity.FoodEntry{
			ID:        "local-1",
			FoodItem:  "Apple",
			Nutrition: entity.NutritionInfo{Calories: 95},
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 95.0, optimistic.Calories.Consumed)
	waitForAggregate(t, updates, func(agg *entity.DailyAggregate) bool {
		return agg.Calories.Consumed == 95.0
	})

	// The remote document does not contain the local entry; its snapshot
	// replaces the optimistic view wholesale.
	remote := entity.NewDailyAggregate(testUserID, testDate, entity.DefaultNutritionTargets())
	remote.AppendEntry(entity.MealBreakfast, entity.FoodEntry{
		ID:        "remote-1",
		FoodItem:  "Toast",
		Nutrition: entity.NutritionInfo{Calories: 120},
	})
	sub.push(remote)

	got := waitForAggregate(t, updates, func(agg *entity.DailyAggregate) bool {
		return agg.Calories.Consumed == 120.0
	})
	_, found := got.FindEntry("local-1")
	assert.False(t, found)

	snapshot, err := svc.Snapshot(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, snapshot.Calories.Consumed)
}

func TestSyncService_ApplyOptimisticWithoutSession(t *testing.T) {
	ctx := context.Background()
	svc := newSyncService(new(MockDiaryRepository))

	agg, err := svc.ApplyOptimistic(ctx, testUserID, testDate, func(agg *entity.DailyAggregate) {
		agg.Water.Consumed = 2
	})

	require.NoError(t, err)
	assert.Equal(t, 2, agg.Water.Consumed)
	assert.Equal(t, entity.DefaultWaterTarget, agg.Water.Target)

	// The detached session now serves snapshots.
	snapshot, err := svc.Snapshot(ctx, testUserID)
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot.Water.Consumed)
}

func TestSyncService_CloseSessionTearsDown(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	sub := newFakeSubscription()

	diaryRepo.On("Watch", mock.Anything, testUserID, testDate).Return(sub, nil)
	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, testDate).
		Return(nil, repository.ErrRemoteUnavailable).Maybe()

	svc := newSyncService(diaryRepo)
	require.NoError(t, svc.SetSelectedDate(ctx, testUserID, testDate))
	require.NoError(t, svc.CloseSession(ctx, testUserID))

	assert.True(t, sub.closed.Load())
	_, err := svc.Snapshot(ctx, testUserID)
	assert.ErrorIs(t, err, impl.ErrNoActiveSession)
}
