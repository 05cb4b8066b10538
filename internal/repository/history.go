package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"nutrisnap/internal/model"
)

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// historyRow is the wire shape of a nutrition_history row. Array columns
// use pq.StringArray; NULLs map to empty slices on the way out.
type historyRow struct {
	Calories        int            `db:"calories"`
	Protein         int            `db:"protein"`
	Carbs           int            `db:"carbs"`
	Fat             int            `db:"fat"`
	Verdict         string         `db:"verdict"`
	HealthScore     int            `db:"health_score"`
	ScannedImage    *string        `db:"scanned_image"`
	Motivation      *string        `db:"motivation"`
	Nutrients       pq.StringArray `db:"nutrients"`
	HealthBenefits  pq.StringArray `db:"health_benefits"`
	HarmfulWarnings pq.StringArray `db:"harmful_warnings"`
	NovaScore       *int           `db:"nova_score"`
	IsUltraProc     *bool          `db:"is_ultra_processed"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (r *historyRepository) Insert(ctx context.Context, userID string, entry model.NutritionData) error {
	query := `
		INSERT INTO nutrition_history
			(user_id, calories, protein, carbs, fat, verdict, health_score,
			 scanned_image, motivation, nutrients, health_benefits,
			 harmful_warnings, nova_score, is_ultra_processed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.ExecContext(ctx, query,
		userID, entry.Calories, entry.Protein, entry.Carbs, entry.Fat,
		entry.Verdict, entry.HealthScore, entry.ScannedImage, entry.Motivation,
		pq.StringArray(entry.KeyNutrients), pq.StringArray(entry.HealthBenefits),
		pq.StringArray(entry.HarmfulWarnings), entry.NovaScore,
		entry.IsUltraProcessed, entry.Timestamp)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

// ListByUser returns the user's ledger newest-first. Rows missing optional
// arrays map to empty slices and a missing NOVA score maps to 0, so callers
// never see NULL-shaped records.
func (r *historyRepository) ListByUser(ctx context.Context, userID string) ([]model.NutritionData, error) {
	query := `
		SELECT calories, protein, carbs, fat, verdict, health_score,
		       scanned_image, motivation, nutrients, health_benefits,
		       harmful_warnings, nova_score, is_ultra_processed, created_at
		FROM nutrition_history
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var rows []historyRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]model.NutritionData, 0, len(rows))
	for _, row := range rows {
		entry := model.NutritionData{
			Calories:        row.Calories,
			Protein:         row.Protein,
			Carbs:           row.Carbs,
			Fat:             row.Fat,
			Verdict:         row.Verdict,
			HealthScore:     row.HealthScore,
			KeyNutrients:    orEmpty(row.Nutrients),
			HealthBenefits:  orEmpty(row.HealthBenefits),
			HarmfulWarnings: orEmpty(row.HarmfulWarnings),
			Timestamp:       row.CreatedAt,
		}
		if row.ScannedImage != nil {
			entry.ScannedImage = *row.ScannedImage
		}
		if row.Motivation != nil {
			entry.Motivation = *row.Motivation
		}
		if row.NovaScore != nil {
			entry.NovaScore = *row.NovaScore
		}
		if row.IsUltraProc != nil {
			entry.IsUltraProcessed = *row.IsUltraProc
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func orEmpty(a pq.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return []string(a)
}
