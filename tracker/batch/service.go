package batch

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/banditrecycle/server/cache"
	"github.com/banditrecycle/server/identity"
	"github.com/banditrecycle/server/model"
	"github.com/banditrecycle/server/store"
	"go.uber.org/zap"
)

var (
	// ErrSetupRequired means the user must finish local setup before logging.
	ErrSetupRequired = errors.New("finish local setup before logging")
	// ErrConfirmationRequired is the soft warning for items the user's
	// program does not accept; repeat the add with confirmation to proceed.
	ErrConfirmationRequired = errors.New("this item is marked as NOT accepted in your local program. Log anyway?")
	// ErrEmptyBatch is returned when submitting a batch with no lines.
	ErrEmptyBatch = errors.New("add at least one item")
)

// State is the logging screen mode.
type State string

const (
	StateEditing State = "editing"
	StateSuccess State = "success"
)

// Screen is one user's logging screen.
type Screen struct {
	Batch      Batch  `json:"batch"`
	State      State  `json:"state"`
	Camera     Camera `json:"camera"`
	LastLogged int    `json:"last_logged"` // items in the last successful submission
}

// Service holds each user's logging screen in the cache.
type Service struct {
	store  *store.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewService creates a batch Service. ttl bounds how long an abandoned
// screen is kept.
func NewService(st *store.Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	return &Service{store: st, cache: c, ttl: ttl, logger: logger}
}

func screenKey(uid string) string { return "batch:screen:" + uid }

func (s *Service) load(ctx context.Context, uid string) (*Screen, error) {
	scr := &Screen{State: StateEditing}
	raw, err := s.cache.Get(ctx, screenKey(uid))
	if cache.IsNotFound(err) {
		return scr, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(raw), scr); err != nil {
		s.logger.Warn("discarding undecodable logging screen", zap.String("user_id", uid))
		return &Screen{State: StateEditing}, nil
	}
	return scr, nil
}

func (s *Service) save(ctx context.Context, uid string, scr *Screen) error {
	data, err := json.Marshal(scr)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, screenKey(uid), string(data), s.ttl)
}

// requireSetup fails with ErrSetupRequired while the caller's profile exists
// and local setup is unfinished.
func (s *Service) requireSetup(ctx context.Context, id identity.Identity) (string, error) {
	uid, ok := id.UserID()
	if !ok {
		return "", store.ErrAuthRequired
	}
	prof, err := s.store.Profiles.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if prof != nil && !prof.LocalSetupCompleted {
		return "", ErrSetupRequired
	}
	return uid, nil
}

// mutate applies fn to the caller's screen. Every screen mutation sits
// behind the setup guard.
func (s *Service) mutate(ctx context.Context, id identity.Identity, fn func(*Screen) error) (*Screen, error) {
	uid, err := s.requireSetup(ctx, id)
	if err != nil {
		return nil, err
	}
	scr, err := s.load(ctx, uid)
	if err != nil {
		return nil, err
	}
	if err := fn(scr); err != nil {
		return scr, err
	}
	return scr, s.save(ctx, uid, scr)
}

// Open enters the logging screen. A user whose profile exists but has not
// completed setup gets ErrSetupRequired.
func (s *Service) Open(ctx context.Context, id identity.Identity) (*Screen, error) {
	uid, err := s.requireSetup(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, uid)
}

// Guidance builds the drawer for one catalog item.
func (s *Service) Guidance(ctx context.Context, id identity.Identity, itemTypeID string) (*Guidance, error) {
	item, err := s.store.Catalog.Get(ctx, itemTypeID)
	if err != nil {
		return nil, err
	}
	rules, err := s.store.Rules.List(ctx, id)
	if err != nil {
		return nil, err
	}
	prof, err := s.store.Profiles.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var mode model.StreamMode
	if prof != nil {
		mode = prof.StreamMode
	}
	g := NewGuidance(*item, store.RuleFor(rules, itemTypeID), mode)
	return &g, nil
}

// Add puts one of itemTypeID into the batch. Items marked not_accepted need
// confirmed=true.
func (s *Service) Add(ctx context.Context, id identity.Identity, itemTypeID string, confirmed bool) (*Screen, error) {
	if _, err := s.requireSetup(ctx, id); err != nil {
		return nil, err
	}
	if _, err := s.store.Catalog.Get(ctx, itemTypeID); err != nil {
		return nil, err
	}
	rules, err := s.store.Rules.List(ctx, id)
	if err != nil {
		return nil, err
	}
	rule := store.RuleFor(rules, itemTypeID)
	return s.mutate(ctx, id, func(scr *Screen) error {
		if rule == model.RuleNotAccepted && !confirmed {
			return ErrConfirmationRequired
		}
		scr.State = StateEditing
		scr.Batch.Add(itemTypeID)
		return nil
	})
}

func (s *Service) Increment(ctx context.Context, id identity.Identity, itemTypeID string) (*Screen, error) {
	return s.mutate(ctx, id, func(scr *Screen) error {
		scr.Batch.Increment(itemTypeID)
		return nil
	})
}

func (s *Service) Decrement(ctx context.Context, id identity.Identity, itemTypeID string) (*Screen, error) {
	return s.mutate(ctx, id, func(scr *Screen) error {
		scr.Batch.Decrement(itemTypeID)
		return nil
	})
}

func (s *Service) Remove(ctx context.Context, id identity.Identity, itemTypeID string) (*Screen, error) {
	return s.mutate(ctx, id, func(scr *Screen) error {
		scr.Batch.Remove(itemTypeID)
		return nil
	})
}

// ToggleCamera flips the camera preview; available reports whether the
// device granted access on this attempt.
func (s *Service) ToggleCamera(ctx context.Context, id identity.Identity, available bool) (*Screen, error) {
	return s.mutate(ctx, id, func(scr *Screen) error {
		scr.Camera.Toggle(available)
		return nil
	})
}

// Leave discards the screen, unsubmitted batch included.
func (s *Service) Leave(ctx context.Context, id identity.Identity) error {
	uid, ok := id.UserID()
	if !ok {
		return store.ErrAuthRequired
	}
	return s.cache.Del(ctx, screenKey(uid))
}

// Submit logs every line in one call. On success the batch is cleared and
// the screen shows the success state; on failure the batch is untouched.
func (s *Service) Submit(ctx context.Context, id identity.Identity) (*Screen, []model.LogEntry, error) {
	var entries []model.LogEntry
	scr, err := s.mutate(ctx, id, func(scr *Screen) error {
		if scr.Batch.IsEmpty() {
			return ErrEmptyBatch
		}
		logged, err := s.store.Logs.LogBatch(ctx, id, scr.Batch.Lines())
		if err != nil {
			return err
		}
		entries = logged
		scr.LastLogged = scr.Batch.Total()
		scr.Batch.Clear()
		scr.State = StateSuccess
		return nil
	})
	if err != nil {
		return scr, nil, err
	}
	s.logger.Info("batch logged",
		zap.String("user", id.String()),
		zap.Int("lines", len(entries)),
		zap.Int("items", scr.LastLogged))
	return scr, entries, nil
}

// Acknowledge ("log more") returns from the success state to editing.
func (s *Service) Acknowledge(ctx context.Context, id identity.Identity) (*Screen, error) {
	return s.mutate(ctx, id, func(scr *Screen) error {
		scr.State = StateEditing
		return nil
	})
}
