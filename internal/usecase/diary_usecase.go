package usecase

import (
	"context"

	"nutrisync/internal/domain/entity"
)

// AddFoodInput carries a manually logged food entry.
type AddFoodInput struct {
	Date      string               `json:"date" validate:"required"`
	MealType  string               `json:"mealType" validate:"required"`
	FoodItem  string               `json:"foodItem" validate:"required"`
	Amount    float64              `json:"amount" validate:"gt=0"`
	Unit      string               `json:"unit" validate:"required"`
	Nutrition entity.NutritionInfo `json:"nutrition"`
}

// UpdateFoodInput replaces an existing entry, possibly moving it to another
// meal.
type UpdateFoodInput struct {
	Date  string           `json:"date" validate:"required"`
	Entry entity.FoodEntry `json:"entry" validate:"required"`
}

// LogNutritionInput adjusts consumed macros directly, bypassing the meal
// lists. Used for AI- and photo-estimated meals.
type LogNutritionInput struct {
	Date      string               `json:"date" validate:"required"`
	Nutrition entity.NutritionInfo `json:"nutrition"`
	Overwrite bool                 `json:"overwrite"`
}

// UpdateActivityInput overwrites the day's activity fields.
type UpdateActivityInput struct {
	Date              string  `json:"date" validate:"required"`
	Steps             int     `json:"steps"`
	ActiveMinutes     int     `json:"activeMinutes"`
	WorkoutsCompleted int     `json:"workoutsCompleted"`
	SleepHours        float64 `json:"sleepHours"`
}

// DiarySummary is a read view of one day: the aggregate plus the derived
// remaining-versus-target values.
type DiarySummary struct {
	Aggregate *entity.DailyAggregate `json:"aggregate"`
	Remaining entity.NutritionInfo   `json:"remaining"`
}

// DiaryUsecase defines the write and read surface of the daily diary. Writes
// are offline-tolerant: when the remote store is unreachable the change is
// applied optimistically to the local view and queued for later replay.
type DiaryUsecase interface {
	// GetDiary returns the day's aggregate, creating a default one if absent.
	GetDiary(ctx context.Context, userID, date string) (*DiarySummary, error)

	// GetTodayTotals returns the consumed nutrition sum for the current day.
	GetTodayTotals(ctx context.Context, userID string) (entity.NutritionInfo, error)

	// GetRemainingCalories returns today's calorie target minus consumed,
	// floored at zero.
	GetRemainingCalories(ctx context.Context, userID string) (float64, error)

	// GetRemainingMacros returns today's per-macro target minus consumed,
	// floored at zero.
	GetRemainingMacros(ctx context.Context, userID string) (entity.NutritionInfo, error)

	// AddFood validates and appends a food entry to the named meal.
	AddFood(ctx context.Context, userID string, input *AddFoodInput) (*entity.DailyAggregate, error)

	// UpdateFood replaces the entry with the same id.
	UpdateFood(ctx context.Context, userID string, input *UpdateFoodInput) (*entity.DailyAggregate, error)

	// RemoveFood removes the entry from whichever meal list holds it.
	RemoveFood(ctx context.Context, userID, date, entryID string) (*entity.DailyAggregate, error)

	// LogNutrition adds to (or overwrites) the consumed macros directly.
	LogNutrition(ctx context.Context, userID string, input *LogNutritionInput) error

	// AddWaterMl converts milliliters to whole glasses and increments the
	// day's water counter.
	AddWaterMl(ctx context.Context, userID, date string, ml int) error

	// SetWaterGlasses overwrites the day's water counter.
	SetWaterGlasses(ctx context.Context, userID, date string, glasses int) error

	// UpdateTargets overwrites the day's macro and water targets.
	UpdateTargets(ctx context.Context, userID, date string, targets entity.NutritionTargets) error

	// UpdateActivity overwrites the day's activity fields.
	UpdateActivity(ctx context.Context, userID string, input *UpdateActivityInput) error
}
