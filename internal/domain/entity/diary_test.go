package entity_test

import (
	"testing"

	"nutrisync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAggregate() *entity.DailyAggregate {
	return entity.NewDailyAggregate("user-123", "2025-03-10", entity.DefaultNutritionTargets())
}

func TestDailyAggregate_TotalsFollowMealLists(t *testing.T) {
	agg := newTestAggregate()

	agg.AppendEntry(entity.MealBreakfast, entity.FoodEntry{
		ID:       "e1",
		FoodItem: "Oatmeal",
		Nutrition: entity.NutritionInfo{
			Calories: 150, Protein: 5, Carbs: 27, Fat: 3,
		},
	})
	agg.AppendEntry(entity.MealBreakfast, entity.FoodEntry{
		ID:       "e2",
		FoodItem: "Banana",
		Nutrition: entity.NutritionInfo{
			Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4,
		},
	})
	agg.AppendEntry(entity.MealLunch, entity.FoodEntry{
		ID:       "e3",
		FoodItem: "Chicken salad",
		Nutrition: entity.NutritionInfo{
			Calories: 350, Protein: 30, Carbs: 10, Fat: 20,
		},
	})

	assert.InDelta(t, 605, agg.Calories.Consumed, 0.001)
	assert.InDelta(t, 36.3, agg.Protein.Consumed, 0.001)
	assert.InDelta(t, 64, agg.Carbs.Consumed, 0.001)
	assert.InDelta(t, 23.4, agg.Fat.Consumed, 0.001)
	assert.Len(t, agg.AllEntries(), 3)
}

func TestDailyAggregate_RemoveEntryRecomputes(t *testing.T) {
	agg := newTestAggregate()
	agg.AppendEntry(entity.MealDinner, entity.FoodEntry{
		ID:        "keep",
		Nutrition: entity.NutritionInfo{Calories: 400},
	})
	agg.AppendEntry(entity.MealDinner, entity.FoodEntry{
		ID:        "drop",
		Nutrition: entity.NutritionInfo{Calories: 250},
	})

	assert.True(t, agg.RemoveEntry("drop"))
	assert.InDelta(t, 400, agg.Calories.Consumed, 0.001)
	assert.Len(t, agg.Meals.Dinner, 1)
}

func TestDailyAggregate_RemoveEntryIsIdempotent(t *testing.T) {
	agg := newTestAggregate()
	agg.AppendEntry(entity.MealSnacks, entity.FoodEntry{
		ID:        "once",
		Nutrition: entity.NutritionInfo{Calories: 90},
	})

	assert.True(t, agg.RemoveEntry("once"))
	assert.False(t, agg.RemoveEntry("once"))
	assert.Zero(t, agg.Calories.Consumed)
	assert.Empty(t, agg.AllEntries())
}

func TestDailyAggregate_ReplaceEntryMovesMeals(t *testing.T) {
	agg := newTestAggregate()
	agg.AppendEntry(entity.MealLunch, entity.FoodEntry{
		ID:        "moveme",
		FoodItem:  "Yogurt",
		Nutrition: entity.NutritionInfo{Calories: 120},
	})

	ok := agg.ReplaceEntry(entity.FoodEntry{
		ID:        "moveme",
		FoodItem:  "Greek yogurt",
		MealType:  entity.MealSnacks,
		Nutrition: entity.NutritionInfo{Calories: 150},
	})

	require.True(t, ok)
	assert.Empty(t, agg.Meals.Lunch)
	require.Len(t, agg.Meals.Snacks, 1)
	assert.Equal(t, "Greek yogurt", agg.Meals.Snacks[0].FoodItem)
	assert.InDelta(t, 150, agg.Calories.Consumed, 0.001)
}

func TestDailyAggregate_ReplaceUnknownEntry(t *testing.T) {
	agg := newTestAggregate()

	assert.False(t, agg.ReplaceEntry(entity.FoodEntry{ID: "ghost"}))
}

func TestDailyAggregate_RemainingClampsAtZero(t *testing.T) {
	agg := newTestAggregate()
	agg.AppendEntry(entity.MealDinner, entity.FoodEntry{
		ID:        "feast",
		Nutrition: entity.NutritionInfo{Calories: 5000, Protein: 300},
	})

	remaining := agg.Remaining()
	assert.Zero(t, remaining.Calories)
	assert.Zero(t, remaining.Protein)
	assert.InDelta(t, entity.DefaultCarbsTarget, remaining.Carbs, 0.001)
}

func TestDailyAggregate_ApplyTargets(t *testing.T) {
	agg := newTestAggregate()

	agg.ApplyTargets(entity.NutritionTargets{
		Calories: 1800, Protein: 120, Carbs: 200, Fat: 60, Water: 10,
	})

	assert.InDelta(t, 1800, agg.Calories.Target, 0.001)
	assert.InDelta(t, 120, agg.Protein.Target, 0.001)
	assert.Equal(t, 10, agg.Water.Target)
}

func TestDiaryKey(t *testing.T) {
	assert.Equal(t, "user-123_2025-03-10", entity.DiaryKey("user-123", "2025-03-10"))
	assert.Equal(t, "user-123_2025-03-10", newTestAggregate().Key())
}
