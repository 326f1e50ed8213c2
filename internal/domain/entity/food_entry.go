package entity

// NutritionInfo is the macro/micro breakdown for a logged amount of food.
// Values are already scaled to the logged amount at log time and are
// immutable afterwards.
type NutritionInfo struct {
	Calories float64 `json:"calories" firestore:"calories"`
	Protein  float64 `json:"protein" firestore:"protein"`
	Carbs    float64 `json:"carbs" firestore:"carbs"`
	Fat      float64 `json:"fat" firestore:"fat"`
	Fiber    float64 `json:"fiber,omitempty" firestore:"fiber"`
	Sugar    float64 `json:"sugar,omitempty" firestore:"sugar"`
	Sodium   float64 `json:"sodium,omitempty" firestore:"sodium"`
}

// Add returns the element-wise sum of two nutrition breakdowns.
func (n NutritionInfo) Add(other NutritionInfo) NutritionInfo {
	return NutritionInfo{
		Calories: n.Calories + other.Calories,
		Protein:  n.Protein + other.Protein,
		Carbs:    n.Carbs + other.Carbs,
		Fat:      n.Fat + other.Fat,
		Fiber:    n.Fiber + other.Fiber,
		Sugar:    n.Sugar + other.Sugar,
		Sodium:   n.Sodium + other.Sodium,
	}
}

// FoodEntry is one logged food item inside a meal list. An entry is owned
// exclusively by the DailyAggregate that contains it.
type FoodEntry struct {
	ID        string        `json:"id" firestore:"id"`
	FoodItem  string        `json:"foodItem" firestore:"foodItem"`
	Amount    float64       `json:"amount" firestore:"amount"`
	Unit      string        `json:"unit" firestore:"unit"`
	MealType  MealType      `json:"mealType" firestore:"mealType"`
	Nutrition NutritionInfo `json:"nutrition" firestore:"nutrition"`
}
