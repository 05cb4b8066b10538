package model

import "errors"

// UserProfile is the synchronized view of a user's remote profile row plus
// locally derived fields. Missing optional columns are backfilled with the
// defaults below at fetch time; the remote store is not required to carry
// every derived field.
type UserProfile struct {
	ID             string `db:"id" json:"id"`
	Name           string `db:"name" json:"name"`
	Onboarded      bool   `json:"onboarded"`
	ScanCount      int    `db:"scan_count" json:"scan_count"`
	DailyScanCount int    `db:"daily_scan_count" json:"daily_scan_count"`
	LastScanDate   string `db:"last_scan_date" json:"last_scan_date"`
	IsPro          bool   `db:"is_pro" json:"is_pro"`
	DietaryPref    string `db:"dietary_preference" json:"dietary_preference"`
	ActivityLevel  string `db:"activity_level" json:"activity_level"`

	Goals Goals `json:"goals"`
	Stats Stats `json:"stats"`
}

// Goals are the user's daily targets.
type Goals struct {
	Calories         int    `json:"calories"`
	Protein          int    `json:"protein"`
	Carbs            int    `json:"carbs"`
	Fat              int    `json:"fat"`
	WaterML          int    `json:"water_ml"`
	PrimaryObjective string `json:"primary_objective"`
}

// Stats are the user's physical stats.
type Stats struct {
	Weight int `json:"weight"`
	Height int `json:"height"`
	Age    int `json:"age"`
}

// ProfileRow is the raw shape of a profiles row. Optional columns are
// pointers so a missing value can be told apart from a zero.
type ProfileRow struct {
	ID               string  `db:"id"`
	Name             *string `db:"name"`
	ScanCount        *int    `db:"scan_count"`
	DailyScanCount   *int    `db:"daily_scan_count"`
	LastScanDate     *string `db:"last_scan_date"`
	IsPro            *bool   `db:"is_pro"`
	DietaryPref      *string `db:"dietary_preference"`
	ActivityLevel    *string `db:"activity_level"`
	CaloriesGoal     *int    `db:"calories_goal"`
	PrimaryObjective *string `db:"primary_objective"`
	Weight           *int    `db:"weight"`
	Height           *int    `db:"height"`
	Age              *int    `db:"age"`
}

// Profile defaults applied when the remote row omits a column.
const (
	DefaultCalorieGoal   = 2000
	DefaultProteinGoal   = 150
	DefaultCarbsGoal     = 200
	DefaultFatGoal       = 70
	DefaultWaterGoalML   = 2500
	DefaultDietaryPref   = "No Preference"
	DefaultActivityLevel = "Moderately Active"
	DefaultObjective     = "Weight Loss"
	DefaultWeight        = 70
	DefaultHeight        = 175
	DefaultAge           = 25
	FreeDailyScanLimit   = 3
)

// DayFormat is the date-only layout used for last_scan_date and water
// log_date values. Rollover comparisons use the viewer's local calendar day.
const DayFormat = "2006-01-02"

// Profile errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrScanLimitReached = errors.New("daily scan limit reached")
)
