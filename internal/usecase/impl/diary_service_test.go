package impl_test

import (
	"context"
	"testing"
	"time"

	"nutrisync/internal/domain/entity"
	domainerrors "nutrisync/internal/domain/errors"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/usecase"
	"nutrisync/internal/usecase/impl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	testUserID = "user-123"
	testDate   = "2025-03-10"
)

func newDiaryService(diaryRepo *MockDiaryRepository, queue *MockQueueUsecase, syncStub *stubSync, online bool) usecase.DiaryUsecase {
	return impl.NewDiaryService(diaryRepo, queue, syncStub, newStubConnectivity(online), testLogger())
}

func validAddFoodInput() *usecase.AddFoodInput {
	return &usecase.AddFoodInput{
		Date:     testDate,
		MealType: "breakfast",
		FoodItem: "Greek yogurt",
		Amount:   150,
		Unit:     "g",
		Nutrition: entity.NutritionInfo{
			Calories: 146,
			Protein:  15,
			Carbs:    5.4,
			Fat:      6,
		},
	}
}

func TestDiaryService_AddFood_Online(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)
	syncStub := &stubSync{}

	remote := entity.NewDailyAggregate(testUserID, testDate, entity.DefaultNutritionTargets())
	remote.AppendEntry(entity.MealBreakfast, entity.FoodEntry{ID: "e-1", Nutrition: entity.NutritionInfo{Calories: 146}})

	diaryRepo.On("AddFoodToMeal", ctx, testUserID, testDate, entity.MealBreakfast,
		mock.MatchedBy(func(entry entity.FoodEntry) bool {
			return entry.FoodItem == "Greek yogurt" && entry.ID != ""
		})).Return(remote, nil)

	svc := newDiaryService(diaryRepo, queue, syncStub, true)
	agg, err := svc.AddFood(ctx, testUserID, validAddFoodInput())

	require.NoError(t, err)
	assert.Equal(t, 146.0, agg.Calories.Consumed)
	diaryRepo.AssertExpectations(t)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDiaryService_AddFood_ValidationFailsFast(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)

	svc := newDiaryService(diaryRepo, queue, &stubSync{}, true)

	t.Run("invalid meal type", func(t *testing.T) {
		input := validAddFoodInput()
		input.MealType = "brunch"

		_, err := svc.AddFood(ctx, testUserID, input)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidMealType)
	})

	t.Run("negative calories", func(t *testing.T) {
		input := validAddFoodInput()
		input.Nutrition.Calories = -10

		_, err := svc.AddFood(ctx, testUserID, input)
		require.Error(t, err)
		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, domainerrors.ErrValueOutOfRange.ErrorCode(), appErr.ErrorCode())
	})

	t.Run("invalid date", func(t *testing.T) {
		input := validAddFoodInput()
		input.Date = "03/10/2025"

		_, err := svc.AddFood(ctx, testUserID, input)
		assert.ErrorIs(t, err, domainerrors.ErrInvalidDate)
	})

	// Invalid input must never reach the remote store or the queue.
	diaryRepo.AssertNotCalled(t, "AddFoodToMeal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDiaryService_AddFood_OfflineQueuesAndAppliesOptimistically(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)
	syncStub := &stubSync{}

	queue.On("Enqueue", ctx, mock.MatchedBy(func(op *entity.QueuedOperation) bool {
		return op.Type == entity.OpAddFood && op.UserID == testUserID && op.Date == testDate
	})).Return(nil)

	svc := newDiaryService(diaryRepo, queue, syncStub, false)
	agg, err := svc.AddFood(ctx, testUserID, validAddFoodInput())

	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 146.0, agg.Calories.Consumed)
	assert.Len(t, agg.Meals.Breakfast, 1)
	assert.Equal(t, 1, syncStub.applied)
	queue.AssertExpectations(t)
	diaryRepo.AssertNotCalled(t, "AddFoodToMeal", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDiaryService_AddFood_TransientRemoteErrorFallsBackToQueue(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)
	syncStub := &stubSync{}

	diaryRepo.On("AddFoodToMeal", ctx, testUserID, testDate, entity.MealBreakfast, mock.Anything).
		Return(nil, repository.ErrRemoteUnavailable)
	queue.On("Enqueue", ctx, mock.Anything).Return(nil)

	svc := newDiaryService(diaryRepo, queue, syncStub, true)
	agg, err := svc.AddFood(ctx, testUserID, validAddFoodInput())

	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 1, syncStub.applied)
	queue.AssertExpectations(t)
}

func TestDiaryService_RemoveFood_OfflineIsIdempotent(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)
	syncStub := &stubSync{}

	queue.On("Enqueue", ctx, mock.MatchedBy(func(op *entity.QueuedOperation) bool {
		return op.Type == entity.OpRemoveFood
	})).Return(nil).Twice()

	svc := newDiaryService(diaryRepo, queue, syncStub, false)

	// Removing an id that is not present is a no-op, not an error.
	agg, err := svc.RemoveFood(ctx, testUserID, testDate, "missing-entry")
	require.NoError(t, err)
	assert.Empty(t, agg.AllEntries())

	agg, err = svc.RemoveFood(ctx, testUserID, testDate, "missing-entry")
	require.NoError(t, err)
	assert.Empty(t, agg.AllEntries())
	queue.AssertExpectations(t)
}

func TestDiaryService_AddWaterMl(t *testing.T) {
	ctx := context.Background()

	t.Run("converts milliliters to glasses", func(t *testing.T) {
		diaryRepo := new(MockDiaryRepository)
		diaryRepo.On("AddWater", ctx, testUserID, testDate, 2).Return(nil)

		svc := newDiaryService(diaryRepo, new(MockQueueUsecase), &stubSync{}, true)
		require.NoError(t, svc.AddWaterMl(ctx, testUserID, testDate, 600))
		diaryRepo.AssertExpectations(t)
	})

	t.Run("below one glass is a no-op", func(t *testing.T) {
		diaryRepo := new(MockDiaryRepository)

		svc := newDiaryService(diaryRepo, new(MockQueueUsecase), &stubSync{}, true)
		require.NoError(t, svc.AddWaterMl(ctx, testUserID, testDate, 100))
		diaryRepo.AssertNotCalled(t, "AddWater", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects implausible amounts", func(t *testing.T) {
		svc := newDiaryService(new(MockDiaryRepository), new(MockQueueUsecase), &stubSync{}, true)

		err := svc.AddWaterMl(ctx, testUserID, testDate, 9000)
		require.Error(t, err)
		var appErr domainerrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, domainerrors.ErrValueOutOfRange.ErrorCode(), appErr.ErrorCode())
	})

	t.Run("offline enqueues the converted glasses", func(t *testing.T) {
		queue := new(MockQueueUsecase)
		queue.On("Enqueue", ctx, mock.MatchedBy(func(op *entity.QueuedOperation) bool {
			payload, err := op.WaterData()
			return err == nil && op.Type == entity.OpAddWater && payload.Glasses == 3
		})).Return(nil)

		svc := newDiaryService(new(MockDiaryRepository), queue, &stubSync{}, false)
		require.NoError(t, svc.AddWaterMl(ctx, testUserID, testDate, 750))
		queue.AssertExpectations(t)
	})
}

func TestDiaryService_LogNutrition_HasNoQueuedForm(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	queue := new(MockQueueUsecase)

	diaryRepo.On("UpdateNutrition", ctx, testUserID, testDate, mock.Anything, repository.NutritionAdd).
		Return(repository.ErrRemoteUnavailable)

	svc := newDiaryService(diaryRepo, queue, &stubSync{}, true)
	err := svc.LogNutrition(ctx, testUserID, &usecase.LogNutritionInput{
		Date:      testDate,
		Nutrition: entity.NutritionInfo{Calories: 420},
	})

	assert.ErrorIs(t, err, repository.ErrRemoteUnavailable)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything)
}

func TestDiaryService_GetDiary_OfflineServesSessionSnapshot(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)
	syncStub := &stubSync{current: entity.NewDailyAggregate(testUserID, testDate, entity.DefaultNutritionTargets())}
	syncStub.current.Water.Consumed = 4

	diaryRepo.On("GetOrCreate", ctx, testUserID, testDate).
		Return(nil, repository.ErrRemoteUnavailable)

	svc := newDiaryService(diaryRepo, new(MockQueueUsecase), syncStub, false)
	summary, err := svc.GetDiary(ctx, testUserID, testDate)

	require.NoError(t, err)
	assert.Equal(t, 4, summary.Aggregate.Water.Consumed)
	assert.Equal(t, entity.DefaultCaloriesTarget, summary.Remaining.Calories)
}

func TestDiaryService_TodayTotalsAndRemaining(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)

	today := time.Now().UTC().Format(entity.DateLayout)
	agg := entity.NewDailyAggregate(testUserID, today, entity.DefaultNutritionTargets())
	agg.AppendEntry(entity.MealLunch, entity.FoodEntry{
		ID:        "e-1",
		FoodItem:  "Chicken salad",
		Nutrition: entity.NutritionInfo{Calories: 500, Protein: 40, Carbs: 15, Fat: 25},
	})

	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, today).Return(agg, nil)

	svc := newDiaryService(diaryRepo, new(MockQueueUsecase), &stubSync{}, true)

	totals, err := svc.GetTodayTotals(ctx, testUserID)
	require.NoError(t, err)
	assert.InDelta(t, 500, totals.Calories, 0.001)
	assert.InDelta(t, 40, totals.Protein, 0.001)

	remainingCalories, err := svc.GetRemainingCalories(ctx, testUserID)
	require.NoError(t, err)
	assert.InDelta(t, entity.DefaultCaloriesTarget-500, remainingCalories, 0.001)

	macros, err := svc.GetRemainingMacros(ctx, testUserID)
	require.NoError(t, err)
	assert.InDelta(t, entity.DefaultProteinTarget-40, macros.Protein, 0.001)
	assert.InDelta(t, entity.DefaultCarbsTarget-15, macros.Carbs, 0.001)
	assert.InDelta(t, entity.DefaultFatTarget-25, macros.Fat, 0.001)
}

func TestDiaryService_TodayTotals_OfflineServesSessionSnapshot(t *testing.T) {
	ctx := context.Background()
	diaryRepo := new(MockDiaryRepository)

	today := time.Now().UTC().Format(entity.DateLayout)
	syncStub := &stubSync{current: entity.NewDailyAggregate(testUserID, today, entity.DefaultNutritionTargets())}
	syncStub.current.AppendEntry(entity.MealBreakfast, entity.FoodEntry{
		ID:        "e-1",
		Nutrition: entity.NutritionInfo{Calories: 320},
	})

	diaryRepo.On("GetOrCreate", mock.Anything, testUserID, today).
		Return(nil, repository.ErrRemoteUnavailable)

	svc := newDiaryService(diaryRepo, new(MockQueueUsecase), syncStub, false)

	totals, err := svc.GetTodayTotals(ctx, testUserID)
	require.NoError(t, err)
	assert.InDelta(t, 320, totals.Calories, 0.001)
}

func TestDiaryService_OptimisticApplyFailureStillReturnsView(t *testing.T) {
	ctx := context.Background()
	queue := new(MockQueueUsecase)
	syncStub := &stubSync{applyErr: errSnapshotUnavailable}

	queue.On("Enqueue", mock.Anything, mock.MatchedBy(func(op *entity.QueuedOperation) bool {
		return op.Type == entity.OpAddFood
	})).Return(nil)

	svc := newDiaryService(new(MockDiaryRepository), queue, syncStub, false)
	agg, err := svc.AddFood(ctx, testUserID, validAddFoodInput())

	// The change is queued either way; the caller still gets a view with the
	// entry applied.
	require.NoError(t, err)
	require.NotNil(t, agg)
	require.Len(t, agg.Meals.Breakfast, 1)
	assert.InDelta(t, 146, agg.Calories.Consumed, 0.001)
	queue.AssertExpectations(t)
}
