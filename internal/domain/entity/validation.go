package entity

import "github.com/pkg/errors"

// Validation bounds for manually logged values. Writes outside these ranges
// are rejected before any remote call is attempted.
const (
	MaxMealCalories = 10000.0
	MaxMacroGrams   = 1000.0
	MaxWaterGlasses = 20
	MaxWaterMl      = 5000
	MaxDailySteps   = 100000
	MinWeightKg     = 20.0
	MaxWeightKg     = 500.0
	MaxSleepHours   = 24.0

	// MlPerGlass converts logged milliliters into diary water glasses.
	MlPerGlass = 250
)

var (
	// ErrNutritionOutOfRange is returned when a macro value is negative or
	// implausibly large.
	ErrNutritionOutOfRange = errors.New("nutrition values out of range")
	// ErrWaterOutOfRange is returned when a water amount is not within bounds.
	ErrWaterOutOfRange = errors.New("water amount out of range")
	// ErrStepsOutOfRange is returned when a step count is not within bounds.
	ErrStepsOutOfRange = errors.New("step count out of range")
	// ErrWeightOutOfRange is returned when a body weight is not within bounds.
	ErrWeightOutOfRange = errors.New("weight out of range")
	// ErrSleepOutOfRange is returned when logged sleep exceeds a day.
	ErrSleepOutOfRange = errors.New("sleep hours out of range")
)

// ValidateNutrition rejects negative or implausible macro values. Callers
// that want clamping instead opt into SanitizeNutrition explicitly.
func ValidateNutrition(n NutritionInfo) error {
	if n.Calories < 0 || n.Calories > MaxMealCalories {
		return errors.Wrapf(ErrNutritionOutOfRange, "calories %.1f", n.Calories)
	}
	for _, grams := range []float64{n.Protein, n.Carbs, n.Fat, n.Fiber, n.Sugar} {
		if grams < 0 || grams > MaxMacroGrams {
			return ErrNutritionOutOfRange
		}
	}
	if n.Sodium < 0 {
		return ErrNutritionOutOfRange
	}

	return nil
}

// SanitizeNutrition clamps macro values into their valid ranges. Used for
// AI- and photo-estimated meals where noisy values are expected.
func SanitizeNutrition(n NutritionInfo) NutritionInfo {
	clamp := func(v, max float64) float64 {
		if v < 0 {
			return 0
		}
		if v > max {
			return max
		}

		return v
	}

	return NutritionInfo{
		Calories: clamp(n.Calories, MaxMealCalories),
		Protein:  clamp(n.Protein, MaxMacroGrams),
		Carbs:    clamp(n.Carbs, MaxMacroGrams),
		Fat:      clamp(n.Fat, MaxMacroGrams),
		Fiber:    clamp(n.Fiber, MaxMacroGrams),
		Sugar:    clamp(n.Sugar, MaxMacroGrams),
		Sodium:   clamp(n.Sodium, MaxMacroGrams*1000),
	}
}

// ValidateWaterMl rejects non-positive or implausible water amounts.
func ValidateWaterMl(ml int) error {
	if ml <= 0 || ml > MaxWaterMl {
		return errors.Wrapf(ErrWaterOutOfRange, "%d ml", ml)
	}

	return nil
}

// ClampWaterGlasses bounds a glasses counter to [0, MaxWaterGlasses].
func ClampWaterGlasses(glasses int) int {
	if glasses < 0 {
		return 0
	}
	if glasses > MaxWaterGlasses {
		return MaxWaterGlasses
	}

	return glasses
}

// GlassesFromMl converts milliliters to whole glasses.
func GlassesFromMl(ml int) int {
	return ml / MlPerGlass
}

// ValidateSteps rejects step counts outside [0, MaxDailySteps].
func ValidateSteps(steps int) error {
	if steps < 0 || steps > MaxDailySteps {
		return errors.Wrapf(ErrStepsOutOfRange, "%d steps", steps)
	}

	return nil
}

// ValidateWeight rejects weights outside [MinWeightKg, MaxWeightKg].
func ValidateWeight(kg float64) error {
	if kg < MinWeightKg || kg > MaxWeightKg {
		return errors.Wrapf(ErrWeightOutOfRange, "%.1f kg", kg)
	}

	return nil
}

// ValidateSleep rejects sleep durations outside [0, MaxSleepHours].
func ValidateSleep(hours float64) error {
	if hours < 0 || hours > MaxSleepHours {
		return errors.Wrapf(ErrSleepOutOfRange, "%.1f hours", hours)
	}

	return nil
}
