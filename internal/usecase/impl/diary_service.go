package impl

import (
	"context"
	"log/slog"
	"time"

	"nutrisync/internal/domain/entity"
	domainerrors "nutrisync/internal/domain/errors"
	"nutrisync/internal/domain/repository"
	"nutrisync/internal/domain/service"
	"nutrisync/internal/errors"
	"nutrisync/internal/usecase"

	"github.com/google/uuid"
)

type diaryService struct {
	diaryRepo    repository.DiaryRepository
	queue        usecase.QueueUsecase
	sync         usecase.SyncUsecase
	connectivity service.ConnectivityMonitor
	logger       *slog.Logger
}

// NewDiaryService creates the offline-tolerant diary write surface.
// Validation failures fail fast and are never queued; only changes that were
// valid but could not reach the remote store go to the offline queue.
func NewDiaryService(
	diaryRepo repository.DiaryRepository,
	queue usecase.QueueUsecase,
	syncUsecase usecase.SyncUsecase,
	connectivity service.ConnectivityMonitor,
	logger *slog.Logger,
) usecase.DiaryUsecase {
	return &diaryService{
		diaryRepo:    diaryRepo,
		queue:        queue,
		sync:         syncUsecase,
		connectivity: connectivity,
		logger:       logger,
	}
}

func validateDate(date string) error {
	if _, err := time.Parse(entity.DateLayout, date); err != nil {
		return domainerrors.ErrInvalidDate
	}

	return nil
}

// transient reports whether the failure should be absorbed by the offline
// queue rather than surfaced to the caller.
func transient(err error) bool {
	return errors.Is(err, repository.ErrRemoteUnavailable)
}

// GetDiary returns the day's aggregate, creating a default one if absent.
// While offline the session's last known view is served instead.
func (s *diaryService) GetDiary(ctx context.Context, userID, date string) (*usecase.DiarySummary, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	agg, err := s.diaryRepo.GetOrCreate(ctx, userID, date)
	if err != nil {
		if !transient(err) {
			return nil, err
		}

		snapshot, snapErr := s.sync.Snapshot(ctx, userID)
		if snapErr != nil || snapshot.Date != date {
			return nil, err
		}
		agg = snapshot
	}

	return &usecase.DiarySummary{
		Aggregate: agg,
		Remaining: agg.Remaining(),
	}, nil
}

// todayAggregate resolves the current day's aggregate through the same
// online/offline fallback path as GetDiary.
func (s *diaryService) todayAggregate(ctx context.Context, userID string) (*entity.DailyAggregate, error) {
	date := time.Now().UTC().Format(entity.DateLayout)
	summary, err := s.GetDiary(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	return summary.Aggregate, nil
}

// GetTodayTotals returns the consumed nutrition sum for the current day.
func (s *diaryService) GetTodayTotals(ctx context.Context, userID string) (entity.NutritionInfo, error) {
	agg, err := s.todayAggregate(ctx, userID)
	if err != nil {
		return entity.NutritionInfo{}, err
	}

	return agg.Totals(), nil
}

// GetRemainingCalories returns today's calorie target minus consumed.
func (s *diaryService) GetRemainingCalories(ctx context.Context, userID string) (float64, error) {
	agg, err := s.todayAggregate(ctx, userID)
	if err != nil {
		return 0, err
	}

	return agg.Remaining().Calories, nil
}

// GetRemainingMacros returns today's per-macro target minus consumed.
func (s *diaryService) GetRemainingMacros(ctx context.Context, userID string) (entity.NutritionInfo, error) {
	agg, err := s.todayAggregate(ctx, userID)
	if err != nil {
		return entity.NutritionInfo{}, err
	}

	return agg.Remaining(), nil
}

// AddFood validates and appends a food entry to the named meal.
func (s *diaryService) AddFood(ctx context.Context, userID string, input *usecase.AddFoodInput) (*entity.DailyAggregate, error) {
	if err := validateDate(input.Date); err != nil {
		return nil, err
	}
	meal := entity.MealType(input.MealType)
	if !meal.Valid() {
		return nil, domainerrors.ErrInvalidMealType
	}
	if err := entity.ValidateNutrition(input.Nutrition); err != nil {
		return nil, domainerrors.ErrValueOutOfRange.WithDetails(err.Error())
	}

	entry := entity.FoodEntry{
		ID:        uuid.New().String(),
		FoodItem:  input.FoodItem,
		Amount:    input.Amount,
		Unit:      input.Unit,
		MealType:  meal,
		Nutrition: input.Nutrition,
	}

	if s.connectivity.IsOnline() {
		agg, err := s.diaryRepo.AddFoodToMeal(ctx, userID, input.Date, meal, entry)
		if err == nil {
			return agg, nil
		}
		if !transient(err) {
			return nil, err
		}
	}

	op, err := entity.NewAddFoodOperation(userID, input.Date, meal, entry)
	if err != nil {
		return nil, err
	}

	return s.queueAndApply(ctx, userID, input.Date, op, func(agg *entity.DailyAggregate) {
		agg.AppendEntry(meal, entry)
	})
}

// UpdateFood replaces the entry with the same id.
func (s *diaryService) UpdateFood(ctx context.Context, userID string, input *usecase.UpdateFoodInput) (*entity.DailyAggregate, error) {
	if err := validateDate(input.Date); err != nil {
		return nil, err
	}
	if !input.Entry.MealType.Valid() {
		return nil, domainerrors.ErrInvalidMealType
	}
	if err := entity.ValidateNutrition(input.Entry.Nutrition); err != nil {
		return nil, domainerrors.ErrValueOutOfRange.WithDetails(err.Error())
	}

	if s.connectivity.IsOnline() {
		agg, err := s.diaryRepo.UpdateFoodInMeal(ctx, userID, input.Date, input.Entry)
		if err == nil {
			return agg, nil
		}
		if !transient(err) {
			return nil, err
		}
	}

	op, err := entity.NewUpdateFoodOperation(userID, input.Date, input.Entry)
	if err != nil {
		return nil, err
	}

	return s.queueAndApply(ctx, userID, input.Date, op, func(agg *entity.DailyAggregate) {
		agg.ReplaceEntry(input.Entry)
	})
}

// RemoveFood removes the entry from whichever meal list holds it. Removal is
// idempotent, so replaying it later can never fail on a missing entry.
func (s *diaryService) RemoveFood(ctx context.Context, userID, date, entryID string) (*entity.DailyAggregate, error) {
	if err := validateDate(date); err != nil {
		return nil, err
	}

	if s.connectivity.IsOnline() {
		agg, err := s.diaryRepo.RemoveFoodFromMeal(ctx, userID, date, entryID)
		if err == nil {
			return agg, nil
		}
		if !transient(err) {
			return nil, err
		}
	}

	op, err := entity.NewRemoveFoodOperation(userID, date, entryID)
	if err != nil {
		return nil, err
	}

	return s.queueAndApply(ctx, userID, date, op, func(agg *entity.DailyAggregate) {
		agg.RemoveEntry(entryID)
	})
}

// LogNutrition adds to (or overwrites) the consumed macros directly. The
// values come from estimators, so they are clamped rather than rejected.
// This path has no queued form: while offline it fails immediately.
func (s *diaryService) LogNutrition(ctx context.Context, userID string, input *usecase.LogNutritionInput) error {
	if err := validateDate(input.Date); err != nil {
		return err
	}

	op := repository.NutritionAdd
	if input.Overwrite {
		op = repository.NutritionSet
	}

	return s.diaryRepo.UpdateNutrition(ctx, userID, input.Date, input.Nutrition, op)
}

// AddWaterMl converts milliliters to whole glasses and increments the day's
// water counter. Amounts below one glass are accepted but change nothing.
func (s *diaryService) AddWaterMl(ctx context.Context, userID, date string, ml int) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if err := entity.ValidateWaterMl(ml); err != nil {
		return domainerrors.ErrValueOutOfRange.WithDetails(err.Error())
	}

	glasses := entity.GlassesFromMl(ml)
	if glasses == 0 {
		return nil
	}

	if s.connectivity.IsOnline() {
		err := s.diaryRepo.AddWater(ctx, userID, date, glasses)
		if err == nil || !transient(err) {
			return err
		}
	}

	op, err := entity.NewAddWaterOperation(userID, date, glasses)
	if err != nil {
		return err
	}

	_, err = s.queueAndApply(ctx, userID, date, op, func(agg *entity.DailyAggregate) {
		agg.Water.Consumed = entity.ClampWaterGlasses(agg.Water.Consumed + glasses)
	})

	return err
}

// SetWaterGlasses overwrites the day's water counter.
func (s *diaryService) SetWaterGlasses(ctx context.Context, userID, date string, glasses int) error {
	if err := validateDate(date); err != nil {
		return err
	}
	if glasses < 0 || glasses > entity.MaxWaterGlasses {
		return domainerrors.ErrValueOutOfRange
	}

	if s.connectivity.IsOnline() {
		err := s.diaryRepo.UpdateWater(ctx, userID, date, glasses)
		if err == nil || !transient(err) {
			return err
		}
	}

	op, err := entity.NewUpdateWaterOperation(userID, date, glasses)
	if err != nil {
		return err
	}

	_, err = s.queueAndApply(ctx, userID, date, op, func(agg *entity.DailyAggregate) {
		agg.Water.Consumed = entity.ClampWaterGlasses(glasses)
	})

	return err
}

// UpdateTargets overwrites the day's macro and water targets. Targets have no
// queued form; while offline the call fails immediately.
func (s *diaryService) UpdateTargets(ctx context.Context, userID, date string, targets entity.NutritionTargets) error {
	if err := validateDate(date); err != nil {
		return err
	}

	return s.diaryRepo.UpdateTargets(ctx, userID, date, targets)
}

// UpdateActivity overwrites the day's activity fields.
func (s *diaryService) UpdateActivity(ctx context.Context, userID string, input *usecase.UpdateActivityInput) error {
	if err := validateDate(input.Date); err != nil {
		return err
	}
	if err := entity.ValidateSteps(input.Steps); err != nil {
		return domainerrors.ErrValueOutOfRange.WithDetails(err.Error())
	}
	if err := entity.ValidateSleep(input.SleepHours); err != nil {
		return domainerrors.ErrValueOutOfRange.WithDetails(err.Error())
	}

	return s.diaryRepo.UpdateActivity(ctx, userID, input.Date,
		input.Steps, input.ActiveMinutes, input.WorkoutsCompleted, input.SleepHours)
}

// queueAndApply stores the operation for later replay and applies it to the
// local view so the caller sees the change immediately. The local state is
// provisional until the queue replays the operation and the remote snapshot
// confirms it.
func (s *diaryService) queueAndApply(ctx context.Context, userID, date string, op *entity.QueuedOperation, mutate func(*entity.DailyAggregate)) (*entity.DailyAggregate, error) {
	if err := s.queue.Enqueue(ctx, op); err != nil {
		return nil, err
	}

	agg, err := s.sync.ApplyOptimistic(ctx, userID, date, mutate)
	if err != nil {
		// The queue already holds the change; a failed optimistic apply only
		// delays visibility until the next remote snapshot. The caller still
		// gets a view with the change applied.
		s.logger.Warn("Optimistic apply failed after enqueue",
			slog.String("operation_id", op.ID),
			slog.String("error", err.Error()),
		)

		fallback := entity.NewDailyAggregate(userID, date, entity.DefaultNutritionTargets())
		mutate(fallback)

		return fallback, nil
	}

	return agg, nil
}
