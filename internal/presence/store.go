package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"arcade-chat/internal/models"
)

const (
	typingKeyPrefix    = "chat:typing:%s"
	heartbeatKeyPrefix = "chat:online:%s"
)

// record is the stored typing status for one user.
type record struct {
	User      models.UserSummary `json:"user"`
	IsTyping  bool               `json:"isTyping"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// Store keeps ephemeral per-user presence state: one typing record and one
// online heartbeat per user. Records carry a TTL slightly beyond the
// freshness window; typing liveness is still decided at read time.
type Store interface {
	SetTyping(ctx context.Context, user models.UserSummary, isTyping bool) error
	ListTyping(ctx context.Context, excludeUserID string) ([]models.UserSummary, error)
	Heartbeat(ctx context.Context, user models.UserSummary) error
	ClearHeartbeat(ctx context.Context, userID string) error
}

// RedisStore is a go-redis-backed Store.
type RedisStore struct {
	rdb    *redis.Client
	window time.Duration
}

// NewRedisStore constructs a store with the given typing freshness window.
func NewRedisStore(rdb *redis.Client, window time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, window: window}
}

func typingKey(userID string) string {
	return fmt.Sprintf(typingKeyPrefix, userID)
}

func heartbeatKey(userID string) string {
	return fmt.Sprintf(heartbeatKeyPrefix, userID)
}

// SetTyping upserts the user's typing record.
func (s *RedisStore) SetTyping(ctx context.Context, user models.UserSummary, isTyping bool) error {
	rec := record{User: user, IsTyping: isTyping, UpdatedAt: time.Now()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal typing record: %w", err)
	}

	// Keep the key around past the window so a stop overwrite still lands on
	// an existing record rather than resurrecting one.
	if err := s.rdb.Set(ctx, typingKey(user.ID), payload, 2*s.window).Err(); err != nil {
		return fmt.Errorf("store typing record: %w", err)
	}
	return nil
}

// ListTyping returns users with a fresh isTyping=true record, excluding the
// requester.
func (s *RedisStore) ListTyping(ctx context.Context, excludeUserID string) ([]models.UserSummary, error) {
	cutoff := time.Now().Add(-s.window)

	var typing []models.UserSummary
	iter := s.rdb.Scan(ctx, 0, typingKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		raw, err := s.rdb.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, err
		}

		var rec record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		if !rec.IsTyping || rec.UpdatedAt.Before(cutoff) || rec.User.ID == excludeUserID {
			continue
		}
		typing = append(typing, rec.User)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return typing, nil
}

// Heartbeat refreshes the user's online marker. The session projection stays
// authoritative; the marker is a cross-instance supplement for explicit
// online announcements.
func (s *RedisStore) Heartbeat(ctx context.Context, user models.UserSummary) error {
	payload, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal heartbeat: %w", err)
	}
	if err := s.rdb.Set(ctx, heartbeatKey(user.ID), payload, 5*time.Minute).Err(); err != nil {
		return fmt.Errorf("store heartbeat: %w", err)
	}
	return nil
}

// ClearHeartbeat drops the user's online marker on explicit departure.
func (s *RedisStore) ClearHeartbeat(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, heartbeatKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear heartbeat: %w", err)
	}
	return nil
}
