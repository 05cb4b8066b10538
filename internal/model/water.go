package model

// WaterLog is one hydration entry: an additive amount in milliliters tied to
// a user and a calendar day. Entries are append-only; the daily total is the
// sum of entries for today.
type WaterLog struct {
	UserID   string `db:"user_id" json:"user_id"`
	AmountML int    `db:"amount" json:"amount"`
	LogDate  string `db:"log_date" json:"log_date"` // DayFormat
}
