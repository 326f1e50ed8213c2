// Package repository defines the interfaces for the persistence layer.
package repository

import (
	"context"

	"nutrisync/internal/domain/entity"

	"github.com/pkg/errors"
)

// Domain-specific errors for diary persistence.
var (
	// ErrDiaryNotFound is returned when no aggregate exists for a (user, date).
	ErrDiaryNotFound = errors.New("diary not found")
	// ErrEntryNotFound is returned when an entry id is not present in any meal list.
	ErrEntryNotFound = errors.New("food entry not found")
	// ErrRemoteUnavailable is returned when the remote document store cannot be
	// reached. Callers treat it as transient and fall back to the offline queue.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// NutritionOp selects how UpdateNutrition combines the given values with the
// stored consumed values.
type NutritionOp string

const (
	// NutritionAdd increments the stored consumed values transactionally.
	NutritionAdd NutritionOp = "add"
	// NutritionSet overwrites the stored consumed values.
	NutritionSet NutritionOp = "set"
)

// DiarySubscription is a live subscription handle for one day's aggregate.
// Updates delivers the full current aggregate on every remote change; the
// channel is closed when the subscription ends.
type DiarySubscription interface {
	Updates() <-chan *entity.DailyAggregate
	Close()
}

// DiaryRepository is the only component permitted to mutate an aggregate's
// macro totals or meal lists. Every mutation runs as an atomic
// read-modify-write transaction against the remote document store, so
// concurrent writers never produce a lost update or observe totals that
// diverge from the meal lists.
type DiaryRepository interface {
	// GetOrCreate returns the aggregate for (userID, date), creating and
	// persisting a default one with the user's resolved targets if absent.
	GetOrCreate(ctx context.Context, userID, date string) (*entity.DailyAggregate, error)

	// AddFoodToMeal appends the entry to the named meal list and recomputes
	// all four macro totals in one transaction.
	AddFoodToMeal(ctx context.Context, userID, date string, meal entity.MealType, entry entity.FoodEntry) (*entity.DailyAggregate, error)

	// RemoveFoodFromMeal filters the entry id out of all meal lists and
	// recomputes totals. Removing an unknown id is a no-op.
	RemoveFoodFromMeal(ctx context.Context, userID, date, entryID string) (*entity.DailyAggregate, error)

	// UpdateFoodInMeal replaces the entry with the same id and recomputes
	// totals.
	UpdateFoodInMeal(ctx context.Context, userID, date string, entry entity.FoodEntry) (*entity.DailyAggregate, error)

	// UpdateNutrition adjusts the consumed macros directly, without touching
	// the meal lists. Used for AI- and photo-estimated meals. Values are
	// clamped before writing.
	UpdateNutrition(ctx context.Context, userID, date string, nutrition entity.NutritionInfo, op NutritionOp) error

	// AddWater atomically increments water.consumed by the given glasses,
	// clamped to the maximum.
	AddWater(ctx context.Context, userID, date string, glasses int) error

	// UpdateWater overwrites water.consumed, clamped to the maximum.
	UpdateWater(ctx context.Context, userID, date string, glasses int) error

	// UpdateTargets overwrites the aggregate's target fields. Targets are not
	// derived from other fields, so last-write-wins is acceptable here.
	UpdateTargets(ctx context.Context, userID, date string, targets entity.NutritionTargets) error

	// UpdateActivity overwrites the activity fields (same direct pattern as
	// targets).
	UpdateActivity(ctx context.Context, userID, date string, steps, activeMinutes, workouts int, sleepHours float64) error

	// Watch opens a live subscription to the (userID, date) aggregate. The
	// remote store pushes the full document on every change.
	Watch(ctx context.Context, userID, date string) (DiarySubscription, error)
}
