// Package store is the data-access layer. Every accessor takes the caller's
// identity explicitly, reads through the query cache and invalidates exactly
// the keys its mutations affect.
package store

import (
	"context"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Cache concerns, one per table or derived value.
const (
	ConcernProfile       = "profile"
	ConcernItemTypes     = "item_types"
	ConcernRules         = "user_item_rules"
	ConcernLogEntries    = "log_entries"
	ConcernWeeklyTotal   = "weekly_total"
	ConcernLifetimeTotal = "lifetime_total"
	ConcernFriends       = "friend_relationships"
)

// DefaultWeeklyWindow is the trailing window used for weekly totals.
const DefaultWeeklyWindow = 7 * 24 * time.Hour

var validate = validator.New()

// Options tunes time-dependent queries.
type Options struct {
	WeeklyWindow time.Duration
	Now          func() time.Time
}

// Store bundles the per-concern accessors.
type Store struct {
	Profiles *Profiles
	Catalog  *Catalog
	Rules    *Rules
	Logs     *Logs
	Friends  *Friends
}

// New wires all accessors over one database and query cache.
func New(db *gorm.DB, qc *cache.QueryCache, opts Options, logger *zap.Logger) *Store {
	if opts.WeeklyWindow <= 0 {
		opts.WeeklyWindow = DefaultWeeklyWindow
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	clock := func() time.Time { return now().UTC() }

	b := base{db: db, qc: qc, logger: logger}
	catalog := &Catalog{base: b}
	profiles := &Profiles{base: b}
	return &Store{
		Profiles: profiles,
		Catalog:  catalog,
		Rules:    &Rules{base: b, catalog: catalog},
		Logs:     &Logs{base: b, catalog: catalog, window: opts.WeeklyWindow, now: clock},
		Friends:  &Friends{base: b, profiles: profiles},
	}
}

type base struct {
	db     *gorm.DB
	qc     *cache.QueryCache
	logger *zap.Logger
}

// invalidate drops keys after a committed mutation. Failures are logged;
// the stale entry still expires with its TTL.
func (b *base) invalidate(ctx context.Context, keys ...cache.Key) {
	if err := b.qc.Invalidate(ctx, keys...); err != nil {
		b.logger.Warn("invalidate failed", zap.Stringers("keys", keys), zap.Error(err))
	}
}

func requireUser(id identity.Identity) (string, error) {
	uid, ok := id.UserID()
	if !ok {
		return "", ErrAuthRequired
	}
	return uid, nil
}

func key(concern, owner string) cache.Key {
	return cache.Key{Concern: concern, Owner: owner}
}
