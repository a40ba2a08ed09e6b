package store

import (
	"context"
	"errors"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"gorm.io/gorm"
)

// Line is one item/quantity pair submitted in a batch.
type Line struct {
	ItemTypeID string `json:"item_type_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"min=1"`
}

// Logs stores logged batches and derives totals from them.
type Logs struct {
	base
	catalog *Catalog
	window  time.Duration
	now     func() time.Time
}

func (l *Logs) since() time.Time {
	return l.now().Add(-l.window)
}

// Recent returns the caller's entries created within the weekly window,
// newest first. There is no upper bound on created_at.
func (l *Logs) Recent(ctx context.Context, id identity.Identity) ([]model.LogEntry, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, nil
	}
	return cache.Fetch(ctx, l.qc, key(ConcernLogEntries, uid), func(ctx context.Context) ([]model.LogEntry, error) {
		var rows []model.LogEntry
		err := l.db.WithContext(ctx).
			Where("user_id = ? AND created_at >= ?", uid, l.since()).
			Order("created_at DESC").
			Find(&rows).Error
		if err != nil {
			return nil, queryErr("recent log entries", err)
		}
		return rows, nil
	})
}

// LogBatch inserts one entry per line, each carrying the caller's stream mode
// and location as read from the store at submission time. All rows are
// written in one transaction.
func (l *Logs) LogBatch(ctx context.Context, id identity.Identity, lines []Line) ([]model.LogEntry, error) {
	uid, err := requireUser(id)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, invalid(errors.New("empty batch"))
	}
	for _, ln := range lines {
		if err := validate.Struct(ln); err != nil {
			return nil, invalid(err)
		}
		if _, err := l.catalog.Get(ctx, ln.ItemTypeID); err != nil {
			return nil, err
		}
	}

	var entries []model.LogEntry
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			mode     *model.StreamMode
			location *string
		)
		var prof model.Profile
		err := tx.Where("user_id = ?", uid).First(&prof).Error
		switch {
		case err == nil:
			m, loc := prof.StreamMode, prof.LocationLabel
			mode, location = &m, &loc
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		now := l.now()
		entries = make([]model.LogEntry, len(lines))
		for i, ln := range lines {
			entries[i] = model.LogEntry{
				UserID:             uid,
				ItemTypeID:         ln.ItemTypeID,
				Quantity:           ln.Quantity,
				CreatedAt:          now,
				StreamModeAtLog:    mode,
				LocationLabelAtLog: location,
			}
		}
		return tx.Create(&entries).Error
	})
	if err != nil {
		return nil, queryErr("log batch", err)
	}
	l.invalidate(ctx,
		key(ConcernLogEntries, uid),
		key(ConcernWeeklyTotal, uid),
		key(ConcernLifetimeTotal, uid),
	)
	return entries, nil
}

type userTotal struct {
	UserID string
	Total  int64
}

// WeeklyTotal is the sum of quantities the caller logged in the weekly window.
func (l *Logs) WeeklyTotal(ctx context.Context, id identity.Identity) (int, error) {
	uid, ok := id.UserID()
	if !ok {
		return 0, nil
	}
	return cache.Fetch(ctx, l.qc, key(ConcernWeeklyTotal, uid), func(ctx context.Context) (int, error) {
		totals, err := l.sumByUser(ctx, []string{uid}, l.since())
		if err != nil {
			return 0, queryErr("weekly total", err)
		}
		return totals[uid], nil
	})
}

// WeeklyTotals computes weekly totals for many users in one grouped query.
// Users with no entries map to zero.
func (l *Logs) WeeklyTotals(ctx context.Context, userIDs []string) (map[string]int, error) {
	totals, err := l.sumByUser(ctx, userIDs, l.since())
	if err != nil {
		return nil, queryErr("weekly totals", err)
	}
	return totals, nil
}

// LifetimeTotal is the sum of every quantity the caller ever logged.
func (l *Logs) LifetimeTotal(ctx context.Context, id identity.Identity) (int, error) {
	uid, ok := id.UserID()
	if !ok {
		return 0, nil
	}
	return cache.Fetch(ctx, l.qc, key(ConcernLifetimeTotal, uid), func(ctx context.Context) (int, error) {
		totals, err := l.sumByUser(ctx, []string{uid}, time.Time{})
		if err != nil {
			return 0, queryErr("lifetime total", err)
		}
		return totals[uid], nil
	})
}

// sumByUser groups quantities by user, counting entries created at or after
// since (zero means no lower bound).
func (l *Logs) sumByUser(ctx context.Context, userIDs []string, since time.Time) (map[string]int, error) {
	out := make(map[string]int, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	q := l.db.WithContext(ctx).Model(&model.LogEntry{}).
		Select("user_id, COALESCE(SUM(quantity), 0) AS total").
		Where("user_id IN ?", userIDs)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	var rows []userTotal
	if err := q.Group("user_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, id := range userIDs {
		out[id] = 0
	}
	for _, r := range rows {
		out[r.UserID] = int(r.Total)
	}
	return out, nil
}
