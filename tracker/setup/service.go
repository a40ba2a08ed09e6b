package setup

import (
	"context"
	"encoding/json"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"go.uber.org/zap"
)

// Service keeps one wizard draft per user in the cache so the wizard
// survives across requests.
type Service struct {
	store    *store.Store
	cache    cache.Cache
	required []string
	ttl      time.Duration
	logger   *zap.Logger
}

// NewService creates a setup Service. required lists the item ids that need
// an explicit rule before setup can finish.
func NewService(st *store.Store, c cache.Cache, required []string, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{store: st, cache: c, required: required, ttl: ttl, logger: logger}
}

func draftKey(uid string) string { return "setup:draft:" + uid }

// Load returns the caller's draft, starting a pre-filled one if none exists.
// A finished draft counts as none, so re-entering setup edits the stored
// answers.
func (s *Service) Load(ctx context.Context, id identity.Identity) (*Wizard, error) {
	uid, ok := id.UserID()
	if !ok {
		return nil, store.ErrAuthRequired
	}
	raw, err := s.cache.Get(ctx, draftKey(uid))
	if err == nil {
		var w Wizard
		if err := json.Unmarshal([]byte(raw), &w); err == nil && w.Step != StepDone {
			// Reading the wizard keeps the draft alive.
			if err := s.cache.Expire(ctx, draftKey(uid), s.ttl); err != nil && !cache.IsNotFound(err) {
				s.logger.Warn("refresh setup draft ttl", zap.String("user_id", uid), zap.Error(err))
			}
			return &w, nil
		}
		if w.Step != StepDone {
			s.logger.Warn("discarding undecodable setup draft", zap.String("user_id", uid))
		}
	} else if !cache.IsNotFound(err) {
		return nil, err
	}

	prof, err := s.store.Profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.Rules.List(ctx, id)
	if err != nil {
		return nil, err
	}
	w := NewWizard(prof, rules, s.required)
	return w, s.save(ctx, uid, w)
}

func (s *Service) save(ctx context.Context, uid string, w *Wizard) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, draftKey(uid), string(data), s.ttl)
}

// update loads the draft, applies fn and stores the result even when fn
// fails, so partial progress and edits are never lost.
func (s *Service) update(ctx context.Context, id identity.Identity, fn func(*Wizard) error) (*Wizard, error) {
	w, err := s.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	uid, _ := id.UserID()
	fnErr := fn(w)
	if err := s.save(ctx, uid, w); err != nil {
		return nil, err
	}
	return w, fnErr
}

func (s *Service) SetLocation(ctx context.Context, id identity.Identity, location string) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error { return w.SetLocation(location) })
}

func (s *Service) SetStreamMode(ctx context.Context, id identity.Identity, mode model.StreamMode) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error { return w.SetStreamMode(mode) })
}

// SetRule records an explicit choice for a catalog item.
func (s *Service) SetRule(ctx context.Context, id identity.Identity, itemTypeID string, rule model.Rule) (*Wizard, error) {
	if _, err := s.store.Catalog.Get(ctx, itemTypeID); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(w *Wizard) error { return w.SetRule(itemTypeID, rule) })
}

// Next runs the current step's guard and save point.
func (s *Service) Next(ctx context.Context, id identity.Identity) (*Wizard, error) {
	p := &storePersister{store: s.store, id: id}
	w, err := s.update(ctx, id, func(w *Wizard) error { return w.Next(ctx, p) })
	if err == nil && w.Step == StepDone {
		uid, _ := id.UserID()
		if err := s.cache.Del(ctx, draftKey(uid)); err != nil {
			s.logger.Warn("drop finished setup draft", zap.String("user_id", uid), zap.Error(err))
		}
		s.logger.Info("local setup completed", zap.String("user", id.String()))
	}
	return w, err
}

func (s *Service) Back(ctx context.Context, id identity.Identity) (*Wizard, error) {
	return s.update(ctx, id, func(w *Wizard) error { return w.Back() })
}

// HasDraft reports whether the caller has a wizard in progress.
func (s *Service) HasDraft(ctx context.Context, id identity.Identity) (bool, error) {
	uid, ok := id.UserID()
	if !ok {
		return false, store.ErrAuthRequired
	}
	return s.cache.Exists(ctx, draftKey(uid))
}

// Discard drops the caller's draft; the next Load starts over from the
// stored profile and rules.
func (s *Service) Discard(ctx context.Context, id identity.Identity) error {
	uid, ok := id.UserID()
	if !ok {
		return store.ErrAuthRequired
	}
	return s.cache.Del(ctx, draftKey(uid))
}

// storePersister writes wizard save points through the data-access layer.
type storePersister struct {
	store *store.Store
	id    identity.Identity
}

func (p *storePersister) SaveLocation(ctx context.Context, location string) error {
	return p.store.Profiles.Update(ctx, p.id, store.ProfilePatch{LocationLabel: &location})
}

func (p *storePersister) SaveStreamMode(ctx context.Context, mode model.StreamMode) error {
	return p.store.Profiles.Update(ctx, p.id, store.ProfilePatch{StreamMode: &mode})
}

func (p *storePersister) SaveRule(ctx context.Context, itemTypeID string, rule model.Rule) error {
	return p.store.Rules.Upsert(ctx, p.id, itemTypeID, rule)
}

func (p *storePersister) Complete(ctx context.Context) error {
	done := true
	return p.store.Profiles.Update(ctx, p.id, store.ProfilePatch{LocalSetupCompleted: &done})
}
