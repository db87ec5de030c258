package replay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

// RedisStore keeps replays in Redis; the retention window maps directly
// onto key expiry, so expired replays vanish without a purge job.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
	retention time.Duration
}

func NewRedisStore(rdb *redis.Client, keyPrefix string, retention time.Duration) *RedisStore {
	return &RedisStore{
		rdb:       rdb,
		keyPrefix: keyPrefix,
		retention: retention,
	}
}

func (s *RedisStore) key(matchID string) string {
	return fmt.Sprintf("%s:%s", s.keyPrefix, matchID)
}

func (s *RedisStore) Save(ctx context.Context, matchID string, events []arena.Event) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(matchID), payload, s.retention).Err(); err != nil {
		slog.Error("failed to store replay in redis", "matchID", matchID, "error", err)
		return err
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, matchID string) ([]arena.Event, error) {
	payload, err := s.rdb.Get(ctx, s.key(matchID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, arena.ErrMatchNotFound
		}
		slog.Error("failed to fetch replay from redis", "matchID", matchID, "error", err)
		return nil, err
	}
	var events []arena.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		return nil, err
	}
	return events, nil
}
