package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/felixgeelhaar/habitat/internal/habits/domain"
)

// DefaultRedisPrefix namespaces every key written by RedisSink.
const DefaultRedisPrefix = "habitat"

// RedisSink stores each collection as a hash per user, field = record id.
// Keys: {prefix}:user:{user_id}:{habits|habit_logs|mood_logs|profile}
type RedisSink struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSink creates a sink on an existing client.
func NewRedisSink(client redis.UniversalClient, prefix string) *RedisSink {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSink{client: client, prefix: prefix}
}

// OpenRedisSink connects to url (redis://...) and verifies the connection.
func OpenRedisSink(ctx context.Context, url string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewRedisSink(client, ""), nil
}

func (s *RedisSink) key(userID, collection string) string {
	return fmt.Sprintf("%s:user:%s:%s", s.prefix, userID, collection)
}

type redisProfile struct {
	Profile  domain.Profile       `json:"profile"`
	Momentum domain.MomentumState `json:"momentum"`
}

// SyncToCloud replaces the user's hashes in one MULTI/EXEC block, which
// drops records the snapshot no longer contains.
func (s *RedisSink) SyncToCloud(ctx context.Context, userID string, snap domain.Snapshot) error {
	habits, err := encodeFields(snap.Habits, func(h domain.Habit) string { return h.ID })
	if err != nil {
		return err
	}
	logs, err := encodeFields(snap.HabitLogs, func(l domain.HabitLog) string { return l.ID })
	if err != nil {
		return err
	}
	moods, err := encodeFields(snap.MoodLogs, func(m domain.MoodLog) string { return m.ID })
	if err != nil {
		return err
	}
	profile, err := json.Marshal(redisProfile{Profile: snap.Profile, Momentum: snap.Momentum})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for collection, fields := range map[string]map[string]any{
			"habits":     habits,
			"habit_logs": logs,
			"mood_logs":  moods,
		} {
			key := s.key(userID, collection)
			pipe.Del(ctx, key)
			if len(fields) > 0 {
				pipe.HSet(ctx, key, fields)
			}
		}
		pipe.Set(ctx, s.key(userID, "profile"), profile, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("sync to redis: %w", err)
	}
	return nil
}

// FetchFromCloud reads the user's hashes; nil when none exist.
func (s *RedisSink) FetchFromCloud(ctx context.Context, userID string) (*domain.Snapshot, error) {
	snap := domain.Snapshot{SchemaVersion: domain.SchemaVersion}
	found := false

	raw, err := s.client.Get(ctx, s.key(userID, "profile")).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		return nil, fmt.Errorf("fetch profile: %w", err)
	default:
		var p redisProfile
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("decode profile: %w", err)
		}
		snap.Profile, snap.Momentum = p.Profile, p.Momentum
		found = true
	}

	if snap.Habits, err = decodeHash[domain.Habit](ctx, s.client, s.key(userID, "habits")); err != nil {
		return nil, err
	}
	if snap.HabitLogs, err = decodeHash[domain.HabitLog](ctx, s.client, s.key(userID, "habit_logs")); err != nil {
		return nil, err
	}
	if snap.MoodLogs, err = decodeHash[domain.MoodLog](ctx, s.client, s.key(userID, "mood_logs")); err != nil {
		return nil, err
	}

	if !found && len(snap.Habits) == 0 && len(snap.HabitLogs) == 0 && len(snap.MoodLogs) == 0 {
		return nil, nil
	}
	sortSnapshot(&snap)
	return &snap, nil
}

// Ping checks the connection.
func (s *RedisSink) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *RedisSink) Close() error {
	return s.client.Close()
}

func encodeFields[T any](items []T, id func(T) string) (map[string]any, error) {
	fields := make(map[string]any, len(items))
	for _, item := range items {
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encode record %s: %w", id(item), err)
		}
		fields[id(item)] = string(raw)
	}
	return fields, nil
}

func decodeHash[T any](ctx context.Context, client redis.UniversalClient, key string) ([]T, error) {
	values, err := client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	out := make([]T, 0, len(values))
	for field, raw := range values {
		var item T
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			return nil, fmt.Errorf("decode %s field %s: %w", key, field, err)
		}
		out = append(out, item)
	}
	return out, nil
}
