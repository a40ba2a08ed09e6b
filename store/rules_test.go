package store_test

import (
	"context"
	"testing"

	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_UpsertIsIdempotent(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	require.NoError(t, s.Rules.Upsert(ctx, id, "paper", model.RuleAccepted))
	require.NoError(t, s.Rules.Upsert(ctx, id, "paper", model.RuleAccepted))

	var n int64
	db.Model(&model.UserItemRule{}).Where("user_id = ? AND item_type_id = ?", "u1", "paper").Count(&n)
	assert.Equal(t, int64(1), n)

	rules, err := s.Rules.List(ctx, id)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.RuleAccepted, rules[0].Rule)
}

func TestRules_UpsertReplaces(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	require.NoError(t, s.Rules.Upsert(ctx, id, "cardboard", model.RuleAccepted))
	_, err := s.Rules.List(ctx, id) // cache it
	require.NoError(t, err)

	require.NoError(t, s.Rules.Upsert(ctx, id, "cardboard", model.RuleNotAccepted))
	rules, err := s.Rules.List(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.RuleNotAccepted, store.RuleFor(rules, "cardboard"))
}

func TestRules_Errors(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	id, _ := newUser(t, s, "u1")

	assert.ErrorIs(t, s.Rules.Upsert(ctx, identity.Anonymous, "paper", model.RuleAccepted), store.ErrAuthRequired)
	assert.ErrorIs(t, s.Rules.Upsert(ctx, id, "unobtainium", model.RuleAccepted), store.ErrUnknownItemType)
	assert.ErrorIs(t, s.Rules.Upsert(ctx, id, "paper", model.Rule("maybe")), store.ErrInvalidInput)
}

func TestRules_ListAnonymous(t *testing.T) {
	s, _ := newStore(t)
	rules, err := s.Rules.List(context.Background(), identity.Anonymous)
	require.NoError(t, err)
	assert.Empty(t, rules)
}

func TestRuleFor_DefaultsToNotSure(t *testing.T) {
	rules := []model.UserItemRule{{ItemTypeID: "paper", Rule: model.RuleAccepted}}
	assert.Equal(t, model.RuleAccepted, store.RuleFor(rules, "paper"))
	assert.Equal(t, model.RuleNotSure, store.RuleFor(rules, "battery"))
	assert.Equal(t, map[string]model.Rule{"paper": model.RuleAccepted}, store.RuleMap(rules))
}

func TestCatalog_ListAndGet(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()

	items, err := s.Catalog.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, len(model.DefaultCatalog))
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Name, items[i].Name, "ordered by name")
	}

	it, err := s.Catalog.Get(ctx, "battery")
	require.NoError(t, err)
	assert.Equal(t, model.BinSpecial, it.DefaultBinDoubleStream)

	_, err = s.Catalog.Get(ctx, "unobtainium")
	assert.ErrorIs(t, err, store.ErrUnknownItemType)

	// rows added externally appear only after Refresh
	require.NoError(t, db.Create(&model.ItemType{ID: "glass_bottle", Name: "Glass bottle", DefaultBinDoubleStream: model.BinContainers}).Error)
	_, err = s.Catalog.Get(ctx, "glass_bottle")
	assert.ErrorIs(t, err, store.ErrUnknownItemType)

	require.NoError(t, s.Catalog.Refresh(ctx))
	_, err = s.Catalog.Get(ctx, "glass_bottle")
	assert.NoError(t, err)
}

func TestCatalog_SkipsInvalidRows(t *testing.T) {
	s, db := newStore(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&model.ItemType{ID: "weird", Name: "Weird", DefaultBinDoubleStream: "compost"}).Error)

	_, err := s.Catalog.Get(ctx, "weird")
	assert.ErrorIs(t, err, store.ErrUnknownItemType)
}
