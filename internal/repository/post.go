package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"nutrisnap/internal/model"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

type postRow struct {
	ID               string          `db:"id"`
	UserID           string          `db:"user_id"`
	UserName         string          `db:"user_name"`
	UserAvatar       *string         `db:"user_avatar"`
	ImageURL         *string         `db:"image_url"`
	Caption          *string         `db:"caption"`
	Likes            *int            `db:"likes"`
	NutritionSummary json.RawMessage `db:"nutrition_summary"`
	CreatedAt        time.Time       `db:"created_at"`
}

// Insert stores the post and returns the server-assigned id. The caller's
// temporary id is never sent: the server row is the single authoritative
// copy and the id swap happens against local state afterwards.
func (r *postRepository) Insert(ctx context.Context, post model.Post) (string, error) {
	var summaryJSON []byte
	if post.NutritionSummary != nil {
		var err error
		summaryJSON, err = json.Marshal(post.NutritionSummary)
		if err != nil {
			return "", fmt.Errorf("marshal nutrition summary: %w", err)
		}
	}

	query := `
		INSERT INTO community_posts
			(user_id, user_name, user_avatar, image_url, caption, likes, nutrition_summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	var serverID string
	err := r.db.GetContext(ctx, &serverID, query,
		post.UserID, post.UserName, post.UserAvatar, post.ImageURL,
		post.Caption, post.Likes, summaryJSON, post.CreatedAt)
	if err != nil {
		if mapped := mapCollectionError(err); errors.Is(mapped, model.ErrCollectionMissing) {
			return "", mapped
		}
		return "", fmt.Errorf("insert post: %w", err)
	}
	return serverID, nil
}

// List returns the global feed newest-first.
func (r *postRepository) List(ctx context.Context) ([]model.Post, error) {
	query := `
		SELECT id, user_id, user_name, user_avatar, image_url, caption,
		       likes, nutrition_summary, created_at
		FROM community_posts
		ORDER BY created_at DESC
	`
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		if mapped := mapCollectionError(err); errors.Is(mapped, model.ErrCollectionMissing) {
			return nil, mapped
		}
		return nil, fmt.Errorf("list posts: %w", err)
	}

	posts := make([]model.Post, 0, len(rows))
	for _, row := range rows {
		post := model.Post{
			ID:        row.ID,
			UserID:    row.UserID,
			UserName:  row.UserName,
			CreatedAt: row.CreatedAt,
		}
		if row.UserAvatar != nil {
			post.UserAvatar = *row.UserAvatar
		}
		if row.ImageURL != nil {
			post.ImageURL = *row.ImageURL
		}
		if row.Caption != nil {
			post.Caption = *row.Caption
		}
		if row.Likes != nil {
			post.Likes = *row.Likes
		}
		if len(row.NutritionSummary) > 0 {
			var summary model.NutritionSummary
			if err := json.Unmarshal(row.NutritionSummary, &summary); err == nil {
				post.NutritionSummary = &summary
			}
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// UpdateLikes overwrites the like total. Deliberately last-writer-wins: the
// local count travels with the event, so rapid likes racing a round-trip can
// under-count remotely. Known contract, not corrected here.
func (r *postRepository) UpdateLikes(ctx context.Context, postID string, likes int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE community_posts SET likes = $2 WHERE id = $1`, postID, likes)
	if err != nil {
		if mapped := mapCollectionError(err); errors.Is(mapped, model.ErrCollectionMissing) {
			return mapped
		}
		return fmt.Errorf("update likes: %w", err)
	}
	return nil
}

// Delete removes a post, enforcing ownership.
func (r *postRepository) Delete(ctx context.Context, postID, userID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM community_posts WHERE id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		if mapped := mapCollectionError(err); errors.Is(mapped, model.ErrCollectionMissing) {
			return mapped
		}
		return fmt.Errorf("delete post: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if rows == 0 {
		// Either gone already or owned by someone else; indistinguishable
		// here and neither warrants a retry.
		return fmt.Errorf("post %s: %w", postID, model.ErrPostNotFound)
	}
	return nil
}
