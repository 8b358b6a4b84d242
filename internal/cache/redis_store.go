package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"fxchain/internal/rates"
)

var _ Store = (*RedisStore)(nil)

const (
	// DefaultRedisKey is the hash holding the canonical set.
	DefaultRedisKey = "fxchain:rates:{canonical}"

	fieldBase = "__base"
	fieldDate = "__date"

	maxMergeAttempts = 5
)

// ErrMergeConflict is returned when concurrent writers keep invalidating a merge.
var ErrMergeConflict = errors.New("cache merge conflict")

// RedisStore keeps the canonical set in a Redis hash (currency -> rate) and
// relies on key expiry for the TTL. Merges run in WATCH/MULTI transactions.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore on key (DefaultRedisKey when empty).
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load reads the hash and its remaining TTL.
func (s *RedisStore) Load(ctx context.Context) (*RateSet, error) {
	pipe := s.client.Pipeline()
	all := pipe.HGetAll(ctx, s.key)
	ttl := pipe.PTTL(ctx, s.key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}

	set, err := decodeSet(all.Val())
	if err != nil || set == nil {
		return nil, err
	}
	if d := ttl.Val(); d > 0 {
		set.ExpiresAt = time.Now().Add(d)
	}
	return set, nil
}

// Merge adds the currencies missing from the stored hash and resets its TTL.
func (s *RedisStore) Merge(ctx context.Context, set *RateSet, ttl time.Duration) error {
	txf := func(tx *redis.Tx) error {
		existing, err := tx.HGetAll(ctx, s.key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		replace := existing[fieldBase] != string(set.Base)

		fields := make(map[string]interface{}, len(set.Rates)+2)
		for c, v := range set.Rates {
			if _, ok := existing[string(c)]; ok && !replace {
				continue
			}
			fields[string(c)] = v.String()
		}
		fields[fieldBase] = string(set.Base)
		if replace && !set.Date.IsZero() {
			fields[fieldDate] = set.Date.Format(time.DateOnly)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if replace {
				pipe.Del(ctx, s.key)
			}
			pipe.HSet(ctx, s.key, fields)
			pipe.PExpire(ctx, s.key, ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxMergeAttempts; i++ {
		err := s.client.Watch(ctx, txf, s.key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("merge %s: %w", s.key, err)
	}
	return ErrMergeConflict
}

// Clear deletes the hash.
func (s *RedisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

func decodeSet(fields map[string]string) (*RateSet, error) {
	set := &RateSet{
		Base:  rates.Currency(fields[fieldBase]),
		Rates: make(map[rates.Currency]decimal.Decimal, len(fields)),
	}
	for k, v := range fields {
		if strings.HasPrefix(k, "__") {
			continue
		}
		rate, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("decode cached rate %s=%q: %w", k, v, err)
		}
		set.Rates[rates.Currency(k)] = rate
	}
	if len(set.Rates) == 0 || set.Base == "" {
		return nil, nil
	}
	if ds, ok := fields[fieldDate]; ok {
		if date, err := time.Parse(time.DateOnly, ds); err == nil {
			set.Date = date.UTC()
		}
	}
	return set, nil
}
