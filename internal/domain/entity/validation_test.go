package entity_test

import (
	"testing"

	"nutrisync/internal/domain/entity"

	"github.com/stretchr/testify/assert"
)

func TestValidateNutrition(t *testing.T) {
	assert.NoError(t, entity.ValidateNutrition(entity.NutritionInfo{
		Calories: 350, Protein: 30, Carbs: 10, Fat: 20,
	}))

	assert.ErrorIs(t, entity.ValidateNutrition(entity.NutritionInfo{Calories: -1}),
		entity.ErrNutritionOutOfRange)
	assert.ErrorIs(t, entity.ValidateNutrition(entity.NutritionInfo{Calories: 10001}),
		entity.ErrNutritionOutOfRange)
	assert.ErrorIs(t, entity.ValidateNutrition(entity.NutritionInfo{Protein: 1200}),
		entity.ErrNutritionOutOfRange)
	assert.ErrorIs(t, entity.ValidateNutrition(entity.NutritionInfo{Sodium: -5}),
		entity.ErrNutritionOutOfRange)
}

func TestSanitizeNutrition(t *testing.T) {
	got := entity.SanitizeNutrition(entity.NutritionInfo{
		Calories: 25000, Protein: -3, Carbs: 80, Fat: 1500,
	})

	assert.InDelta(t, entity.MaxMealCalories, got.Calories, 0.001)
	assert.Zero(t, got.Protein)
	assert.InDelta(t, 80, got.Carbs, 0.001)
	assert.InDelta(t, entity.MaxMacroGrams, got.Fat, 0.001)
}

func TestValidateWaterMl(t *testing.T) {
	assert.NoError(t, entity.ValidateWaterMl(250))
	assert.ErrorIs(t, entity.ValidateWaterMl(0), entity.ErrWaterOutOfRange)
	assert.ErrorIs(t, entity.ValidateWaterMl(-100), entity.ErrWaterOutOfRange)
	assert.ErrorIs(t, entity.ValidateWaterMl(5001), entity.ErrWaterOutOfRange)
}

func TestGlassesFromMl(t *testing.T) {
	assert.Equal(t, 0, entity.GlassesFromMl(100))
	assert.Equal(t, 1, entity.GlassesFromMl(250))
	assert.Equal(t, 2, entity.GlassesFromMl(600))
	assert.Equal(t, 4, entity.GlassesFromMl(1000))
}

func TestClampWaterGlasses(t *testing.T) {
	assert.Equal(t, 0, entity.ClampWaterGlasses(-2))
	assert.Equal(t, 7, entity.ClampWaterGlasses(7))
	assert.Equal(t, entity.MaxWaterGlasses, entity.ClampWaterGlasses(99))
}

func TestValidateSteps(t *testing.T) {
	assert.NoError(t, entity.ValidateSteps(12000))
	assert.ErrorIs(t, entity.ValidateSteps(-1), entity.ErrStepsOutOfRange)
	assert.ErrorIs(t, entity.ValidateSteps(100001), entity.ErrStepsOutOfRange)
}

func TestValidateWeight(t *testing.T) {
	assert.NoError(t, entity.ValidateWeight(72.5))
	assert.ErrorIs(t, entity.ValidateWeight(10), entity.ErrWeightOutOfRange)
	assert.ErrorIs(t, entity.ValidateWeight(600), entity.ErrWeightOutOfRange)
}

func TestValidateSleep(t *testing.T) {
	assert.NoError(t, entity.ValidateSleep(7.5))
	assert.ErrorIs(t, entity.ValidateSleep(-0.5), entity.ErrSleepOutOfRange)
	assert.ErrorIs(t, entity.ValidateSleep(25), entity.ErrSleepOutOfRange)
}
