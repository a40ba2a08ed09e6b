package store

import (
	"context"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/model"
	"go.uber.org/zap"
)

// Catalog is the read-only item catalog. It is seeded outside the
// application, so Refresh exists to drop the cached copy.
type Catalog struct {
	base
}

// List returns the full catalog ordered by name. Rows that fail validation
// are skipped and logged.
func (c *Catalog) List(ctx context.Context) ([]model.ItemType, error) {
	return cache.Fetch(ctx, c.qc, key(ConcernItemTypes, ""), func(ctx context.Context) ([]model.ItemType, error) {
		var rows []model.ItemType
		if err := c.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
			return nil, queryErr("list item types", err)
		}
		items := rows[:0]
		for _, it := range rows {
			if err := validate.Struct(it); err != nil {
				c.logger.Warn("skipping invalid item type", zap.String("id", it.ID), zap.Error(err))
				continue
			}
			items = append(items, it)
		}
		return items, nil
	})
}

// Get returns one catalog entry or ErrUnknownItemType.
func (c *Catalog) Get(ctx context.Context, id string) (*model.ItemType, error) {
	items, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == id {
			return &items[i], nil
		}
	}
	return nil, ErrUnknownItemType
}

// Refresh drops the cached catalog so the next read refetches it.
func (c *Catalog) Refresh(ctx context.Context) error {
	return c.qc.InvalidateConcern(ctx, ConcernItemTypes)
}

// Index maps catalog entries by id.
func Index(items []model.ItemType) map[string]model.ItemType {
	m := make(map[string]model.ItemType, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return m
}
