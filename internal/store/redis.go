package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pwstrength/pwstrength/pkg/bench"
)

// RedisStore is a History backed by Redis. Each report is a JSON string
// under <prefix>bench:<id> that expires after the TTL; the sorted set
// <prefix>bench:index holds every ID scored by insert time in Unix
// milliseconds.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time // injectable for deterministic tests
}

var _ History = (*RedisStore)(nil)

// NewRedis returns a RedisStore that uses client and namespaces its keys
// with prefix.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) reportKey(id string) string { return s.prefix + "bench:" + id }

func (s *RedisStore) indexKey() string { return s.prefix + "bench:index" }

// Put writes the report and indexes its ID in one transaction.
func (s *RedisStore) Put(ctx context.Context, rep *bench.Report) error {
	now := s.now()
	data, err := json.Marshal(&Entry{Report: rep, UpdatedAt: now})
	if err != nil {
		return fmt.Errorf("store: encode report %s: %w", rep.ID, err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.reportKey(rep.ID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), redis.Z{Score: float64(now.UnixMilli()), Member: rep.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: put report %s: %w", rep.ID, err)
	}
	return nil
}

// Get returns the entry for id. A key that Redis has expired is not found.
func (s *RedisStore) Get(ctx context.Context, id string) (*Entry, bool, error) {
	data, err := s.client.Get(ctx, s.reportKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get report %s: %w", id, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("store: decode report %s: %w", id, err)
	}
	return &e, true, nil
}

// List returns the entries indexed within the TTL, newest first. IDs whose
// report key is already gone are skipped.
func (s *RedisStore) List(ctx context.Context) ([]*Entry, error) {
	cutoff := s.now().Add(-s.ttl).UnixMilli()
	ids, err := s.client.ZRevRangeByScore(ctx, s.indexKey(), &redis.ZRangeBy{
		Min: "(" + strconv.FormatInt(cutoff, 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list index: %w", err)
	}
	if len(ids) == 0 {
		return []*Entry{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.reportKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list reports: %w", err)
	}

	out := make([]*Entry, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // expired between the index read and MGET
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			slog.Warn("store: skipping undecodable report", "id", ids[i], "err", err)
			continue
		}
		out = append(out, &e)
	}
	return out, nil
}

// TTL returns the configured entry lifetime.
func (s *RedisStore) TTL() time.Duration { return s.ttl }

// Evict trims index members older than now minus TTL. The report keys
// themselves expire in Redis. It returns the number of IDs removed.
func (s *RedisStore) Evict(ctx context.Context, now time.Time) (int64, error) {
	cutoff := now.Add(-s.ttl).UnixMilli()
	n, err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", strconv.FormatInt(cutoff, 10)).Result()
	if err != nil {
		return 0, fmt.Errorf("store: trim index: %w", err)
	}
	return n, nil
}

// Run trims the index at half the TTL (minimum 1 second) until ctx is
// cancelled.
func (s *RedisStore) Run(ctx context.Context) {
	t := time.NewTicker(evictInterval(s.ttl))
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.Evict(ctx, now)
			if err != nil {
				slog.Warn("store: redis eviction failed", "err", err)
				continue
			}
			if n > 0 {
				slog.Debug("store: trimmed expired report ids", "count", n)
			}
		}
	}
}
