package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nutrisnap/internal/model"
)

type waterRepository struct {
	db *sqlx.DB
}

func NewWaterRepository(db *sqlx.DB) WaterRepository {
	return &waterRepository{db: db}
}

func (r *waterRepository) Insert(ctx context.Context, entry model.WaterLog) error {
	query := `INSERT INTO water_logs (user_id, amount, log_date) VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, entry.UserID, entry.AmountML, entry.LogDate)
	if err != nil {
		return fmt.Errorf("insert water log: %w", err)
	}
	return nil
}

// TotalForDay aggregates at read time; rows are never mutated, only
// appended, so a sum is all there is to it. No rows means 0.
func (r *waterRepository) TotalForDay(ctx context.Context, userID, day string) (int, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM water_logs WHERE user_id = $1 AND log_date = $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID, day); err != nil {
		return 0, fmt.Errorf("sum water logs: %w", err)
	}
	return total, nil
}
