package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"nutrisnap/internal/model"
)

// Event types for the sync stream. Each one corresponds to an optimistic
// local mutation whose remote write is issued asynchronously.
const (
	EventScanRecorded   = "scan_recorded"
	EventMealLogged     = "meal_logged"
	EventPostShared     = "post_shared"
	EventPostLiked      = "post_liked"
	EventPostDeleted    = "post_deleted"
	EventWaterLogged    = "water_logged"
	EventProfileUpdated = "profile_updated"
	EventProChanged     = "pro_changed"
)

// Stream and consumer group names
const (
	StreamSync        = "stream:sync"
	ConsumerGroupSync = "sync_writers"
)

// SyncEvent is one pending remote write. The local state transition has
// already happened by the time an event is published; the worker applies
// the write best-effort and never touches local state on failure (except
// the post_shared id reconciliation on success).
type SyncEvent struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix, when the local mutation was applied
	UserID    string `json:"user_id"`

	// scan_recorded
	ScanTotal int    `json:"scan_total,omitempty"`
	ScanDaily int    `json:"scan_daily,omitempty"`
	ScanDay   string `json:"scan_day,omitempty"`

	// meal_logged
	Entry *model.NutritionData `json:"entry,omitempty"`

	// post_shared (TempID identifies the local pending post to reconcile)
	TempID string      `json:"temp_id,omitempty"`
	Post   *model.Post `json:"post,omitempty"`

	// post_liked / post_deleted
	PostID string `json:"post_id,omitempty"`
	Likes  int    `json:"likes,omitempty"`

	// water_logged
	AmountML int    `json:"amount_ml,omitempty"`
	LogDate  string `json:"log_date,omitempty"`

	// profile_updated
	Profile *model.UserProfile `json:"profile,omitempty"`
	Upsert  bool               `json:"upsert,omitempty"`

	// pro_changed
	IsPro bool `json:"is_pro,omitempty"`
}

func NewScanRecordedEvent(userID string, total, daily int, day string) SyncEvent {
	return SyncEvent{
		Type:      EventScanRecorded,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		ScanTotal: total,
		ScanDaily: daily,
		ScanDay:   day,
	}
}

func NewMealLoggedEvent(userID string, entry model.NutritionData) SyncEvent {
	return SyncEvent{
		Type:      EventMealLogged,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		Entry:     &entry,
	}
}

// NewPostSharedEvent carries the full optimistic post. The worker inserts
// it, learns the server id, and reconciles the temp id in local state.
func NewPostSharedEvent(userID, tempID string, post model.Post) SyncEvent {
	return SyncEvent{
		Type:      EventPostShared,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		TempID:    tempID,
		Post:      &post,
	}
}

// NewPostLikedEvent carries the absolute new total, not a delta. Last
// writer wins on the remote row; rapid likes racing a round-trip can
// under-count remotely.
func NewPostLikedEvent(userID, postID string, likes int) SyncEvent {
	return SyncEvent{
		Type:      EventPostLiked,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		PostID:    postID,
		Likes:     likes,
	}
}

func NewPostDeletedEvent(userID, postID string) SyncEvent {
	return SyncEvent{
		Type:      EventPostDeleted,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		PostID:    postID,
	}
}

func NewWaterLoggedEvent(userID string, amountML int, day string) SyncEvent {
	return SyncEvent{
		Type:      EventWaterLogged,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		AmountML:  amountML,
		LogDate:   day,
	}
}

func NewProfileUpdatedEvent(profile model.UserProfile, upsert bool) SyncEvent {
	return SyncEvent{
		Type:      EventProfileUpdated,
		Timestamp: time.Now().Unix(),
		UserID:    profile.ID,
		Profile:   &profile,
		Upsert:    upsert,
	}
}

func NewProChangedEvent(userID string, isPro bool) SyncEvent {
	return SyncEvent{
		Type:      EventProChanged,
		Timestamp: time.Now().Unix(),
		UserID:    userID,
		IsPro:     isPro,
	}
}

// ToMap serializes the event for XADD. The whole event travels as one JSON
// field; type is duplicated top-level so stream entries stay greppable.
func (e SyncEvent) ToMap() (map[string]interface{}, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal sync event: %w", err)
	}
	return map[string]interface{}{
		"type": e.Type,
		"data": string(data),
	}, nil
}

// ParseSyncEvent reverses ToMap for messages read off the stream.
func ParseSyncEvent(values map[string]interface{}) (SyncEvent, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return SyncEvent{}, fmt.Errorf("sync event missing data field")
	}
	var event SyncEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return SyncEvent{}, fmt.Errorf("unmarshal sync event: %w", err)
	}
	return event, nil
}
