package store

import (
	"context"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"gorm.io/gorm/clause"
)

// Rules holds each user's local acceptance rule per item type.
type Rules struct {
	base
	catalog *Catalog
}

// List returns the caller's recorded rules ordered by item id.
// The anonymous identity gets an empty list.
func (r *Rules) List(ctx context.Context, id identity.Identity) ([]model.UserItemRule, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, nil
	}
	return cache.Fetch(ctx, r.qc, key(ConcernRules, uid), func(ctx context.Context) ([]model.UserItemRule, error) {
		var rows []model.UserItemRule
		if err := r.db.WithContext(ctx).Where("user_id = ?", uid).Order("item_type_id").Find(&rows).Error; err != nil {
			return nil, queryErr("list rules", err)
		}
		return rows, nil
	})
}

// Upsert records rule for (caller, itemTypeID), replacing any existing row.
// Calling it twice with the same arguments leaves exactly one row.
func (r *Rules) Upsert(ctx context.Context, id identity.Identity, itemTypeID string, rule model.Rule) error {
	uid, err := requireUser(id)
	if err != nil {
		return err
	}
	row := model.UserItemRule{UserID: uid, ItemTypeID: itemTypeID, Rule: rule}
	if err := validate.Struct(row); err != nil {
		return invalid(err)
	}
	if _, err := r.catalog.Get(ctx, itemTypeID); err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "item_type_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rule", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return queryErr("upsert rule", err)
	}
	r.invalidate(ctx, key(ConcernRules, uid))
	return nil
}

// RuleFor returns the recorded rule for itemTypeID, or not_sure when absent.
func RuleFor(rules []model.UserItemRule, itemTypeID string) model.Rule {
	for _, r := range rules {
		if r.ItemTypeID == itemTypeID {
			return r.Rule
		}
	}
	return model.RuleNotSure
}

// RuleMap indexes recorded rules by item id.
func RuleMap(rules []model.UserItemRule) map[string]model.Rule {
	m := make(map[string]model.Rule, len(rules))
	for _, r := range rules {
		m[r.ItemTypeID] = r.Rule
	}
	return m
}
