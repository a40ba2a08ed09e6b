package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvalidationChannel carries the string form of every invalidated Key.
const InvalidationChannel = "query:invalidate"

const (
	queryPrefix   = "q:"
	indexPrefix   = "q:index:"
	versionPrefix = "q:ver:"

	versionTTL = 24 * time.Hour
)

// Key identifies one cached query result: a concern (table or derived value)
// and the user that owns it. Owner is empty for shared data such as the catalog.
type Key struct {
	Concern string
	Owner   string
}

func (k Key) String() string {
	if k.Owner == "" {
		return k.Concern
	}
	return k.Concern + ":" + k.Owner
}

// ParseKey is the inverse of Key.String.
func ParseKey(s string) Key {
	concern, owner, _ := strings.Cut(s, ":")
	return Key{Concern: concern, Owner: owner}
}

// QueryCache memoises query results as JSON under their Key.
// Mutations call Invalidate with exactly the keys they affect; the next read
// refetches. Every invalidation is announced on InvalidationChannel.
type QueryCache struct {
	c      Cache
	ps     PubSub
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueryCache creates a QueryCache. ttl bounds how long a result may live
// without an invalidation; zero keeps it until invalidated.
func NewQueryCache(c Cache, ps PubSub, ttl time.Duration, logger *zap.Logger) *QueryCache {
	return &QueryCache{c: c, ps: ps, ttl: ttl, logger: logger}
}

// Fetch returns the cached result for key, calling load on a miss.
// Load errors are returned as-is and never cached. Cache backend failures
// degrade to a direct load.
func Fetch[T any](ctx context.Context, q *QueryCache, key Key, load func(context.Context) (T, error)) (T, error) {
	if q == nil {
		return load(ctx)
	}
	sk := queryPrefix + key.String()
	raw, err := q.c.Get(ctx, sk)
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			return v, nil
		}
		q.logger.Warn("query cache: undecodable entry", zap.String("key", key.String()))
	case !IsNotFound(err):
		q.logger.Warn("query cache: get failed", zap.String("key", key.String()), zap.Error(err))
	}

	ver := q.version(ctx, key)
	v, err := load(ctx)
	if err != nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		q.logger.Warn("query cache: encode failed", zap.String("key", key.String()), zap.Error(err))
		return v, nil
	}
	if err := q.c.Set(ctx, sk, string(data), q.ttl); err != nil {
		q.logger.Warn("query cache: set failed", zap.String("key", key.String()), zap.Error(err))
		return v, nil
	}
	// An invalidation that landed while load ran may predate the Set above;
	// drop the possibly stale result. Invalidate bumps the version before
	// deleting, so one of the two deletes always follows the Set.
	if q.version(ctx, key) != ver {
		_ = q.c.Del(ctx, sk)
		return v, nil
	}
	if key.Owner != "" {
		_ = q.c.SAdd(ctx, indexPrefix+key.Concern, key.Owner)
	}
	return v, nil
}

// Invalidate drops the given keys and notifies subscribers of each one.
func (q *QueryCache) Invalidate(ctx context.Context, keys ...Key) error {
	if q == nil || len(keys) == 0 {
		return nil
	}
	storage := make([]string, len(keys))
	for i, k := range keys {
		if err := q.c.Set(ctx, versionPrefix+k.String(), uuid.NewString(), versionTTL); err != nil {
			return err
		}
		storage[i] = queryPrefix + k.String()
	}
	if err := q.c.Del(ctx, storage...); err != nil {
		return err
	}
	for _, k := range keys {
		if k.Owner != "" {
			_ = q.c.SRem(ctx, indexPrefix+k.Concern, k.Owner)
		}
		q.publish(ctx, k)
	}
	return nil
}

// InvalidateConcern drops every cached result of concern, for all owners.
func (q *QueryCache) InvalidateConcern(ctx context.Context, concern string) error {
	if q == nil {
		return nil
	}
	owners, err := q.c.SMembers(ctx, indexPrefix+concern)
	if err != nil {
		return err
	}
	keys := make([]Key, 0, len(owners)+1)
	keys = append(keys, Key{Concern: concern})
	for _, o := range owners {
		keys = append(keys, Key{Concern: concern, Owner: o})
	}
	if err := q.Invalidate(ctx, keys...); err != nil {
		return err
	}
	return q.c.Del(ctx, indexPrefix+concern)
}

// version returns the invalidation generation of key, empty if it was never
// invalidated or the backend failed.
func (q *QueryCache) version(ctx context.Context, key Key) string {
	v, err := q.c.Get(ctx, versionPrefix+key.String())
	if err != nil {
		return ""
	}
	return v
}

func (q *QueryCache) publish(ctx context.Context, k Key) {
	if q.ps == nil {
		return
	}
	if err := q.ps.Publish(ctx, InvalidationChannel, k.String()); err != nil {
		q.logger.Warn("query cache: publish failed", zap.String("key", k.String()), zap.Error(err))
	}
}

// Subscribe returns a stream of invalidated keys and a cancel function.
func (q *QueryCache) Subscribe(ctx context.Context) (<-chan Key, func(), error) {
	msgs, cancel, err := q.ps.Subscribe(ctx, InvalidationChannel)
	if err != nil {
		return nil, nil, err
	}
	out := make(chan Key, 64)
	go func() {
		defer close(out)
		for m := range msgs {
			out <- ParseKey(m.Payload)
		}
	}()
	return out, cancel, nil
}
