// Package entity contains the core business objects of the project.
package entity

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used in diary document keys.
const DateLayout = "2006-01-02"

// MacroProgress tracks a consumed value against a daily target for one macro.
type MacroProgress struct {
	Consumed float64 `json:"consumed" firestore:"consumed"`
	Target   float64 `json:"target" firestore:"target"`
}

// WaterProgress tracks water intake in glasses against a daily target.
type WaterProgress struct {
	Consumed int `json:"consumed" firestore:"consumed"`
	Target   int `json:"target" firestore:"target"`
}

// Meals holds the four ordered per-meal food entry lists of a diary day.
type Meals struct {
	Breakfast []FoodEntry `json:"breakfast" firestore:"breakfast"`
	Lunch     []FoodEntry `json:"lunch" firestore:"lunch"`
	Dinner    []FoodEntry `json:"dinner" firestore:"dinner"`
	Snacks    []FoodEntry `json:"snacks" firestore:"snacks"`
}

// List returns the entry list for the given meal.
func (m *Meals) List(meal MealType) []FoodEntry {
	switch meal {
	case MealBreakfast:
		return m.Breakfast
	case MealLunch:
		return m.Lunch
	case MealDinner:
		return m.Dinner
	case MealSnacks:
		return m.Snacks
	default:
		return nil
	}
}

func (m *Meals) setList(meal MealType, entries []FoodEntry) {
	switch meal {
	case MealBreakfast:
		m.Breakfast = entries
	case MealLunch:
		m.Lunch = entries
	case MealDinner:
		m.Dinner = entries
	case MealSnacks:
		m.Snacks = entries
	}
}

// DailyAggregate is the per-user, per-day nutrition and activity summary.
// The macro totals are a derived cache: they are recomputed from the full
// meal lists on every list mutation and are never the independent source
// of truth.
type DailyAggregate struct {
	UserID string `json:"userId" firestore:"userId"`
	Date   string `json:"date" firestore:"date"`

	Calories MacroProgress `json:"calories" firestore:"calories"`
	Protein  MacroProgress `json:"protein" firestore:"protein"`
	Carbs    MacroProgress `json:"carbs" firestore:"carbs"`
	Fat      MacroProgress `json:"fat" firestore:"fat"`

	Water WaterProgress `json:"water" firestore:"water"`

	Meals Meals `json:"meals" firestore:"meals"`

	Steps             int     `json:"steps" firestore:"steps"`
	ActiveMinutes     int     `json:"activeMinutes" firestore:"activeMinutes"`
	WorkoutsCompleted int     `json:"workoutsCompleted" firestore:"workoutsCompleted"`
	SleepHours        float64 `json:"sleepHours" firestore:"sleepHours"`

	UpdatedAt time.Time `json:"updatedAt" firestore:"updatedAt,serverTimestamp"`
}

// NewDailyAggregate creates a fresh aggregate for (userID, date) with
// consumed values at zero and targets taken from the resolved target set.
func NewDailyAggregate(userID, date string, targets NutritionTargets) *DailyAggregate {
	return &DailyAggregate{
		UserID:   userID,
		Date:     date,
		Calories: MacroProgress{Target: targets.Calories},
		Protein:  MacroProgress{Target: targets.Protein},
		Carbs:    MacroProgress{Target: targets.Carbs},
		Fat:      MacroProgress{Target: targets.Fat},
		Water:    WaterProgress{Target: targets.Water},
	}
}

// DiaryKey builds the document key for a (userID, date) pair.
func DiaryKey(userID, date string) string {
	return fmt.Sprintf("%s_%s", userID, date)
}

// Key returns the aggregate's document key.
func (d *DailyAggregate) Key() string {
	return DiaryKey(d.UserID, d.Date)
}

// AllEntries returns every food entry across the four meal lists.
func (d *DailyAggregate) AllEntries() []FoodEntry {
	entries := make([]FoodEntry, 0,
		len(d.Meals.Breakfast)+len(d.Meals.Lunch)+len(d.Meals.Dinner)+len(d.Meals.Snacks))
	for _, meal := range MealTypes() {
		entries = append(entries, d.Meals.List(meal)...)
	}

	return entries
}

// RecomputeTotals walks the complete set of meal lists and rewrites the four
// macro consumed values from scratch. Every meal-list mutation must be
// followed by a call to this method before the aggregate is written back.
func (d *DailyAggregate) RecomputeTotals() {
	var sum NutritionInfo
	for _, entry := range d.AllEntries() {
		sum = sum.Add(entry.Nutrition)
	}

	d.Calories.Consumed = sum.Calories
	d.Protein.Consumed = sum.Protein
	d.Carbs.Consumed = sum.Carbs
	d.Fat.Consumed = sum.Fat
}

// AppendEntry appends the entry to the named meal list and recomputes totals.
func (d *DailyAggregate) AppendEntry(meal MealType, entry FoodEntry) {
	entry.MealType = meal
	d.Meals.setList(meal, append(d.Meals.List(meal), entry))
	d.RecomputeTotals()
}

// RemoveEntry filters the entry id out of all four meal lists and recomputes
// totals. Removing an id that is not present leaves the aggregate unchanged.
func (d *DailyAggregate) RemoveEntry(entryID string) bool {
	removed := false
	for _, meal := range MealTypes() {
		list := d.Meals.List(meal)
		kept := list[:0:0]
		for _, entry := range list {
			if entry.ID == entryID {
				removed = true

				continue
			}
			kept = append(kept, entry)
		}
		d.Meals.setList(meal, kept)
	}
	d.RecomputeTotals()

	return removed
}

// ReplaceEntry replaces the entry with the same id. If the meal type changed
// the entry moves lists; totals are recomputed either way. Returns false when
// no entry with that id exists.
func (d *DailyAggregate) ReplaceEntry(entry FoodEntry) bool {
	if !d.RemoveEntry(entry.ID) {
		return false
	}
	d.AppendEntry(entry.MealType, entry)

	return true
}

// FindEntry returns the entry with the given id, if present.
func (d *DailyAggregate) FindEntry(entryID string) (FoodEntry, bool) {
	for _, entry := range d.AllEntries() {
		if entry.ID == entryID {
			return entry, true
		}
	}

	return FoodEntry{}, false
}

// Totals returns the current consumed nutrition sum of the aggregate.
func (d *DailyAggregate) Totals() NutritionInfo {
	return NutritionInfo{
		Calories: d.Calories.Consumed,
		Protein:  d.Protein.Consumed,
		Carbs:    d.Carbs.Consumed,
		Fat:      d.Fat.Consumed,
	}
}

// Remaining returns target minus consumed per macro, floored at zero.
func (d *DailyAggregate) Remaining() NutritionInfo {
	clampZero := func(v float64) float64 {
		if v < 0 {
			return 0
		}

		return v
	}

	return NutritionInfo{
		Calories: clampZero(d.Calories.Target - d.Calories.Consumed),
		Protein:  clampZero(d.Protein.Target - d.Protein.Consumed),
		Carbs:    clampZero(d.Carbs.Target - d.Carbs.Consumed),
		Fat:      clampZero(d.Fat.Target - d.Fat.Consumed),
	}
}

// ApplyTargets overwrites the aggregate's target fields.
func (d *DailyAggregate) ApplyTargets(targets NutritionTargets) {
	d.Calories.Target = targets.Calories
	d.Protein.Target = targets.Protein
	d.Carbs.Target = targets.Carbs
	d.Fat.Target = targets.Fat
	d.Water.Target = targets.Water
}
