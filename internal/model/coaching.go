package model

// Types produced by the AI coaching generators. They are request/response
// payloads only; nothing here is persisted to the remote store.

// Meal is a single planned meal.
type Meal struct {
	Time        string `json:"time"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Calories    int    `json:"calories"`
	Macros      struct {
		P int `json:"p"`
		C int `json:"c"`
		F int `json:"f"`
	} `json:"macros"`
}

// MealPlan is a one-day plan plus a tip.
type MealPlan struct {
	Meals    []Meal `json:"meals"`
	DailyTip string `json:"daily_tip"`
}

// WorkoutExercise is one exercise in a generated workout.
type WorkoutExercise struct {
	Name           string `json:"name"`
	Duration       string `json:"duration"`
	Instructions   string `json:"instructions"`
	TargetCalories int    `json:"target_calories"`
}

// WorkoutPlan is calibrated against the user's remaining calories for the
// day (goal minus consumed).
type WorkoutPlan struct {
	Title         string            `json:"title"`
	Type          string            `json:"type"`
	TotalDuration string            `json:"total_duration"`
	Exercises     []WorkoutExercise `json:"exercises"`
}

// SleepData is the user-reported input to recovery analysis.
type SleepData struct {
	Hours       float64 `json:"hours"`
	Quality     int     `json:"quality"`      // 1-10
	StressLevel int     `json:"stress_level"` // 1-10
}

// RecoveryProtocol is the AI's readiness assessment.
type RecoveryProtocol struct {
	ReadinessScore         int      `json:"readiness_score"`
	ActivityRecommendation string   `json:"activity_recommendation"`
	NutritionFocus         string   `json:"nutrition_focus"`
	SupplementTips         []string `json:"supplement_tips"`
}

// Substitution suggests a diet-compatible swap for one ingredient.
type Substitution struct {
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Benefits    string `json:"benefits"`
	MacrosDiff  string `json:"macros_diff"`
}

// FoodFact is a grounded answer to a free-form food question plus the web
// sources it drew on.
type FoodFact struct {
	Text    string       `json:"text"`
	Sources []FactSource `json:"sources"`
}

// FactSource is one cited web source.
type FactSource struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

// GroceryCategory is one section of a consolidated shopping list.
type GroceryCategory struct {
	Category string   `json:"category"`
	Items    []string `json:"items"`
}

// PantryReport grades a fridge or pantry scan.
type PantryReport struct {
	Grade              string   `json:"grade"` // A-F
	ItemsFound         []string `json:"items_found"`
	TopRecommendations []string `json:"top_recommendations"`
	SuggestedRecipe    struct {
		Name        string   `json:"name"`
		Ingredients []string `json:"ingredients"`
	} `json:"suggested_recipe"`
}
