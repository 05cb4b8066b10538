package model

import (
	"errors"
	"strings"
	"time"
)

// Post is a community share. ID is either a server-assigned identifier or a
// locally generated temporary one carrying TempIDPrefix. Exactly one
// authoritative copy exists per logical post: a temporary id is swapped for
// the server id once the server confirms creation, and any likes or edits
// applied in the interim carry forward across the swap.
type Post struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	UserAvatar string    `db:"user_avatar" json:"user_avatar"`
	ImageURL   string    `db:"image_url" json:"image_url"`
	Caption    string    `db:"caption" json:"caption"`
	Likes      int       `db:"likes" json:"likes"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	NutritionSummary *NutritionSummary `json:"nutrition_summary,omitempty"`
}

// TempIDPrefix marks locally generated post ids awaiting server confirmation.
const TempIDPrefix = "temp-"

// IsTempID reports whether id is a pending local identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

const MaxPostCaptionLength = 2200

// Post errors
var (
	ErrPostNotFound   = errors.New("post not found")
	ErrNotPostOwner   = errors.New("not the owner of this post")
	ErrCaptionTooLong = errors.New("caption too long")

	// ErrCollectionMissing signals that a remote collection does not exist
	// in this deployment. It is a degraded-mode condition, not a failure to
	// surface to the user: the community feed falls back to the local
	// session cache when the remote fetch reports it.
	ErrCollectionMissing = errors.New("remote collection missing")
)
