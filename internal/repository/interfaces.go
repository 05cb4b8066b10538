package repository

import (
	"context"

	"nutrisnap/internal/model"
)

// The repositories are the only code touching the remote relational store.
// Writes here are invoked by the sync worker after the corresponding local
// mutation has already been applied; none of them roll anything back.

type ProfileRepository interface {
	// Get returns the raw profile row, or model.ErrProfileNotFound when the
	// user has no row yet (caller routes to onboarding).
	Get(ctx context.Context, userID string) (*model.ProfileRow, error)
	// Upsert creates or replaces the profile row at onboarding completion.
	Upsert(ctx context.Context, p *model.UserProfile) error
	// Update overwrites the editable profile fields.
	Update(ctx context.Context, p *model.UserProfile) error
	// UpdateScanCounters persists the lifetime/daily counters and last scan day.
	UpdateScanCounters(ctx context.Context, userID string, total, daily int, day string) error
	// SetPro flips the subscription flag.
	SetPro(ctx context.Context, userID string, isPro bool) error
}

type HistoryRepository interface {
	// Insert appends one analysis record. Append-only: no update path exists.
	Insert(ctx context.Context, userID string, entry model.NutritionData) error
	// ListByUser returns records newest-first.
	ListByUser(ctx context.Context, userID string) ([]model.NutritionData, error)
}

type PostRepository interface {
	// Insert stores a post and returns the server-assigned id.
	// Returns model.ErrCollectionMissing when the collection does not exist.
	Insert(ctx context.Context, post model.Post) (string, error)
	// List returns all posts newest-first.
	// Returns model.ErrCollectionMissing when the collection does not exist.
	List(ctx context.Context) ([]model.Post, error)
	// UpdateLikes overwrites a post's like total (last writer wins).
	UpdateLikes(ctx context.Context, postID string, likes int) error
	// Delete removes a post owned by userID.
	Delete(ctx context.Context, postID, userID string) error
}

type WaterRepository interface {
	// Insert appends one hydration entry.
	Insert(ctx context.Context, entry model.WaterLog) error
	// TotalForDay sums amounts for a user on one calendar day.
	TotalForDay(ctx context.Context, userID, day string) (int, error)
}
