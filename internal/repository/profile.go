package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"nutrisnap/internal/model"
)

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

// Get retrieves the raw profile row. Optional columns come back as NULLs;
// default backfill is the synchronizer's job, not the repository's.
func (r *profileRepository) Get(ctx context.Context, userID string) (*model.ProfileRow, error) {
	query := `
		SELECT id, name, scan_count, daily_scan_count, last_scan_date, is_pro,
		       dietary_preference, activity_level, calories_goal,
		       primary_objective, weight, height, age
		FROM profiles
		WHERE id = $1
	`
	var row model.ProfileRow
	err := r.db.GetContext(ctx, &row, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &row, nil
}

// Upsert writes the full onboarding row. is_pro always starts false; a
// subscription purchase flips it later through SetPro.
func (r *profileRepository) Upsert(ctx context.Context, p *model.UserProfile) error {
	query := `
		INSERT INTO profiles (id, name, weight, height, age, calories_goal,
		                      dietary_preference, activity_level, primary_objective, is_pro)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			weight = EXCLUDED.weight,
			height = EXCLUDED.height,
			age = EXCLUDED.age,
			calories_goal = EXCLUDED.calories_goal,
			dietary_preference = EXCLUDED.dietary_preference,
			activity_level = EXCLUDED.activity_level,
			primary_objective = EXCLUDED.primary_objective
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Stats.Weight, p.Stats.Height, p.Stats.Age,
		p.Goals.Calories, p.DietaryPref, p.ActivityLevel, p.Goals.PrimaryObjective)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Update overwrites the settings-editable fields only. Counters and the pro
// flag have their own narrower writes.
func (r *profileRepository) Update(ctx context.Context, p *model.UserProfile) error {
	query := `
		UPDATE profiles
		SET name = $2, weight = $3, height = $4, age = $5, calories_goal = $6,
		    dietary_preference = $7, activity_level = $8
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Stats.Weight, p.Stats.Height, p.Stats.Age,
		p.Goals.Calories, p.DietaryPref, p.ActivityLevel)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows affected: %w", err)
	}
	if rows == 0 {
		return model.ErrProfileNotFound
	}
	return nil
}

func (r *profileRepository) UpdateScanCounters(ctx context.Context, userID string, total, daily int, day string) error {
	query := `
		UPDATE profiles
		SET scan_count = $2, daily_scan_count = $3, last_scan_date = $4
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, userID, total, daily, day)
	if err != nil {
		return fmt.Errorf("update scan counters: %w", err)
	}
	return nil
}

func (r *profileRepository) SetPro(ctx context.Context, userID string, isPro bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE profiles SET is_pro = $2 WHERE id = $1`, userID, isPro)
	if err != nil {
		return fmt.Errorf("set pro: %w", err)
	}
	return nil
}
