// Package redis stores query telemetry in redis. Each aggregate write is a
// single Lua script, so increments and trending promotion are atomic per key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Saugat913/femite-sub000/internal/domain"
	"github.com/Saugat913/femite-sub000/internal/telemetry"
	"github.com/Saugat913/femite-sub000/internal/textrank"
	"github.com/Saugat913/femite-sub000/pkg/database"
)

const (
	keyPrefix   = "search:"
	popularKey  = keyPrefix + "popular"
	queryPrefix = keyPrefix + "q:"
	streamKey   = keyPrefix + "queries"
)

// Defaults for Options.
const (
	DefaultStreamMaxLen = 100_000
	DefaultScanLimit    = 1_000
)

// bumpScript increments KEYS[1] and indexes it in KEYS[2]. ARGV: query,
// unix nanos, threshold ("" for a plain search). Returns {count, trending}.
var bumpScript = redis.NewScript(`
local n = redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('HSET', KEYS[1], 'query', ARGV[1], 'last', ARGV[2])
local trending = redis.call('HGET', KEYS[1], 'trending')
if ARGV[3] ~= '' and n > tonumber(ARGV[3]) then
  redis.call('HSET', KEYS[1], 'trending', '1')
  trending = '1'
end
redis.call('ZADD', KEYS[2], n, ARGV[1])
if trending == '1' then
  return {n, 1}
end
return {n, 0}
`)

// Options tunes the store.
type Options struct {
	// StreamMaxLen caps the query log stream (approximate trimming).
	StreamMaxLen int64
	// ScanLimit is how many of the most searched keys History and Trending
	// consider.
	ScanLimit int64
}

// Store implements telemetry.Store on a redis client.
type Store struct {
	client *redis.Client
	opts   Options
}

var _ telemetry.Store = (*Store)(nil)

// New creates a redis-backed telemetry store.
func New(client *redis.Client, opts Options) *Store {
	if opts.StreamMaxLen <= 0 {
		opts.StreamMaxLen = DefaultStreamMaxLen
	}
	if opts.ScanLimit <= 0 {
		opts.ScanLimit = DefaultScanLimit
	}
	return &Store{client: client, opts: opts}
}

// AppendQuery adds entry to the query log stream.
func (s *Store) AppendQuery(ctx context.Context, entry domain.QueryLogEntry) (err error) {
	ctx, end := database.TraceCall(ctx, "redis", "AppendQuery", "XADD "+streamKey)
	defer func() { end(err) }()

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: streamKey,
		MaxLen: s.opts.StreamMaxLen,
		Approx: true,
		Values: map[string]any{
			"id":         entry.ID,
			"query":      entry.Query,
			"user_id":    entry.UserID,
			"ip_address": entry.IPAddress,
			"user_agent": entry.UserAgent,
			"session_id": entry.SessionID,
			"filters":    string(entry.Filters),
			"created_at": entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("redis xadd query: %w", err)
	}
	return nil
}

// RecordSearch increments key.
func (s *Store) RecordSearch(ctx context.Context, key string, at time.Time) (err error) {
	ctx, end := database.TraceCall(ctx, "redis", "RecordSearch", "EVALSHA bump")
	defer func() { end(err) }()

	if _, _, err = s.bump(ctx, key, at, ""); err != nil {
		return fmt.Errorf("redis record search: %w", err)
	}
	return nil
}

// RecordSelection increments key and promotes it past threshold.
func (s *Store) RecordSelection(ctx context.Context, key string, at time.Time, threshold int) (pq domain.PopularQuery, err error) {
	ctx, end := database.TraceCall(ctx, "redis", "RecordSelection", "EVALSHA bump")
	defer func() { end(err) }()

	n, trending, err := s.bump(ctx, key, at, strconv.Itoa(threshold))
	if err != nil {
		return domain.PopularQuery{}, fmt.Errorf("redis record selection: %w", err)
	}
	return domain.PopularQuery{
		Query:          key,
		SearchCount:    n,
		IsTrending:     trending,
		LastSearchedAt: at,
	}, nil
}

func (s *Store) bump(ctx context.Context, key string, at time.Time, threshold string) (int, bool, error) {
	res, err := bumpScript.Run(ctx, s.client,
		[]string{queryPrefix + key, popularKey},
		key, strconv.FormatInt(at.UnixNano(), 10), threshold,
	).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, errors.New("unexpected script reply")
	}
	return int(res[0]), res[1] == 1, nil
}

// History returns keys containing term or trigram-similar to it, drawn from
// the most searched ScanLimit keys.
func (s *Store) History(ctx context.Context, term string, limit int) (rows []domain.PopularQuery, err error) {
	ctx, end := database.TraceCall(ctx, "redis", "History", "ZREVRANGE "+popularKey)
	defer func() { end(err) }()

	all, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis history: %w", err)
	}

	term = strings.ToLower(term)
	rows = make([]domain.PopularQuery, 0)
	for _, pq := range all {
		pq.Similarity = textrank.Similarity(pq.Query, term)
		if strings.Contains(pq.Query, term) || pq.Similarity >= textrank.SimilarityThreshold {
			rows = append(rows, pq)
		}
	}
	telemetry.SortHistory(rows, term)
	return telemetry.Truncate(rows, limit), nil
}

// Trending returns keys searched more than once.
func (s *Store) Trending(ctx context.Context, limit int) (rows []domain.PopularQuery, err error) {
	ctx, end := database.TraceCall(ctx, "redis", "Trending", "ZREVRANGE "+popularKey)
	defer func() { end(err) }()

	all, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis trending: %w", err)
	}

	rows = make([]domain.PopularQuery, 0, len(all))
	for _, pq := range all {
		if pq.SearchCount > 1 {
			rows = append(rows, pq)
		}
	}
	telemetry.SortTrending(rows)
	return telemetry.Truncate(rows, limit), nil
}

// load reads the top ScanLimit keys by count and their hashes in one
// pipeline.
func (s *Store) load(ctx context.Context) ([]domain.PopularQuery, error) {
	keys, err := s.client.ZRevRange(ctx, popularKey, 0, s.opts.ScanLimit-1).Result()
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err = s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, k := range keys {
			cmds[i] = p.HGetAll(ctx, queryPrefix+k)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]domain.PopularQuery, 0, len(keys))
	for i, cmd := range cmds {
		h := cmd.Val()
		if len(h) == 0 {
			continue
		}
		count, _ := strconv.Atoi(h["count"])
		nanos, _ := strconv.ParseInt(h["last"], 10, 64)
		query := h["query"]
		if query == "" {
			query = keys[i]
		}
		out = append(out, domain.PopularQuery{
			Query:          query,
			SearchCount:    count,
			IsTrending:     h["trending"] == "1",
			LastSearchedAt: time.Unix(0, nanos).UTC(),
		})
	}
	return out, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
