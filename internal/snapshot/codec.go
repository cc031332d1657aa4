package snapshot

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"practice-service/internal/models"
)

// CurrentVersion is the snapshot schema version. Bump it whenever the session
// shape changes incompatibly; old snapshots are discarded, never migrated.
const CurrentVersion = 1

// MaxAge bounds how long a snapshot stays recoverable. A question deck may
// have changed underneath a session that is a day old.
const MaxAge = 24 * time.Hour

const keyPrefix = "practice:snapshot:"

// Store is the ephemeral key-value port backing session snapshots. Get
// returns (nil, nil) when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Remove(ctx context.Context, key string) error
}

// Snapshot is the persisted copy of an in-progress session.
type Snapshot struct {
	Session *models.PracticeSession `json:"session"`
	SavedAt time.Time               `json:"saved_at"`
	Version int                     `json:"version"`
}

// Codec serializes sessions to a Store and restores them with version and
// staleness checks. Write and delete failures are logged, never surfaced:
// losing a snapshot must not break a running session.
type Codec struct {
	store Store
	now   func() time.Time
}

func NewCodec(store Store) *Codec {
	return &Codec{store: store, now: time.Now}
}

// Key returns the storage key for a user's snapshot.
func Key(userID string) string {
	return keyPrefix + userID
}

// Save overwrites the user's snapshot with the full session state.
func (c *Codec) Save(ctx context.Context, sess *models.PracticeSession) {
	if sess == nil || sess.UserID == "" {
		return
	}
	snap := Snapshot{Session: sess, SavedAt: c.now(), Version: CurrentVersion}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[SNAPSHOT] marshal failed for session %s: %v", sess.ID, err)
		return
	}
	if err := c.store.Set(ctx, Key(sess.UserID), data, MaxAge); err != nil {
		log.Printf("[SNAPSHOT] write failed for user %s: %v", sess.UserID, err)
	}
}

// Load returns the user's snapshot, or nil when there is nothing valid to
// recover. Corrupt, stale, version-mismatched, or already-terminal snapshots
// are cleared and treated as absent.
func (c *Codec) Load(ctx context.Context, userID string) *Snapshot {
	data, err := c.store.Get(ctx, Key(userID))
	if err != nil {
		log.Printf("[SNAPSHOT] read failed for user %s: %v", userID, err)
		return nil
	}
	if len(data) == 0 {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[SNAPSHOT] discarding corrupt snapshot for user %s: %v", userID, err)
		c.Clear(ctx, userID)
		return nil
	}
	if snap.Version != CurrentVersion {
		log.Printf("[SNAPSHOT] discarding snapshot for user %s: version %d, want %d", userID, snap.Version, CurrentVersion)
		c.Clear(ctx, userID)
		return nil
	}
	if c.now().Sub(snap.SavedAt) > MaxAge {
		log.Printf("[SNAPSHOT] discarding stale snapshot for user %s (saved %s)", userID, snap.SavedAt.Format(time.RFC3339))
		c.Clear(ctx, userID)
		return nil
	}
	if snap.Session == nil || !snap.Session.InProgress() {
		c.Clear(ctx, userID)
		return nil
	}
	return &snap
}

// Clear removes the user's snapshot.
func (c *Codec) Clear(ctx context.Context, userID string) {
	if err := c.store.Remove(ctx, Key(userID)); err != nil {
		log.Printf("[SNAPSHOT] delete failed for user %s: %v", userID, err)
	}
}
