package model

import "time"

// NutritionData is one completed food analysis. Records are immutable after
// creation and appended to the history ledger; they are never updated.
type NutritionData struct {
	Calories int `db:"calories" json:"calories"`
	Protein  int `db:"protein" json:"protein"`
	Carbs    int `db:"carbs" json:"carbs"`
	Fat      int `db:"fat" json:"fat"`

	Verdict          string `db:"verdict" json:"verdict"`           // e.g. "Superfood", "Healthy", "Moderate", "Avoid"
	HealthScore      int    `db:"health_score" json:"health_score"` // 1-100
	NovaScore        int    `db:"nova_score" json:"nova_score"`     // 1-4 NOVA processing scale
	IsUltraProcessed bool   `db:"is_ultra_processed" json:"is_ultra_processed"`

	Motivation         string   `db:"motivation" json:"motivation"`
	KeyNutrients       []string `json:"key_nutrients"`
	HealthBenefits     []string `json:"health_benefits"`
	HarmfulWarnings    []string `json:"harmful_warnings"`
	BetterAlternatives []string `json:"better_alternatives,omitempty"`

	ScannedImage string    `db:"scanned_image" json:"scanned_image,omitempty"` // base64 JPEG or object URL
	Timestamp    time.Time `json:"timestamp"`
}

// NutritionSummary is the snapshot attached to a shared post. Summaries are
// copies: later edits to the source entry never affect a shared post.
type NutritionSummary struct {
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
	Carbs    int    `json:"carbs"`
	Fat      int    `json:"fat"`
	Verdict  string `json:"verdict"`
}

// Summarize builds the share snapshot for an entry.
func (n NutritionData) Summarize() NutritionSummary {
	return NutritionSummary{
		Calories: n.Calories,
		Protein:  n.Protein,
		Carbs:    n.Carbs,
		Fat:      n.Fat,
		Verdict:  n.Verdict,
	}
}
