package entity

// Default nutrition targets, used when a user has no saved targets.
const (
	DefaultCaloriesTarget = 2000.0
	DefaultProteinTarget  = 150.0
	DefaultCarbsTarget    = 250.0
	DefaultFatTarget      = 65.0
	DefaultWaterTarget    = 8
)

// NutritionTargets holds the per-user daily target values resolved from the
// user's profile, or the fixed defaults if unavailable.
type NutritionTargets struct {
	Calories float64 `json:"calories" firestore:"calories"`
	Protein  float64 `json:"protein" firestore:"protein"`
	Carbs    float64 `json:"carbs" firestore:"carbs"`
	Fat      float64 `json:"fat" firestore:"fat"`
	Water    int     `json:"water" firestore:"water"`
}

// DefaultNutritionTargets returns the fixed fallback target set.
func DefaultNutritionTargets() NutritionTargets {
	return NutritionTargets{
		Calories: DefaultCaloriesTarget,
		Protein:  DefaultProteinTarget,
		Carbs:    DefaultCarbsTarget,
		Fat:      DefaultFatTarget,
		Water:    DefaultWaterTarget,
	}
}
