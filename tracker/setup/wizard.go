// Package setup implements the local-rules setup wizard:
// Location → StreamMode → ItemRules → Done, linear with no skipping.
package setup

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/banditrecycle/server/model"
)

var (
	ErrLocationRequired   = errors.New("enter your ZIP code or city")
	ErrStreamModeRequired = errors.New("choose single or double stream")
	ErrInvalidRule        = errors.New("rule must be accepted, not_accepted or not_sure")
	ErrFinished           = errors.New("setup is already finished")
	ErrCannotGoBack       = errors.New("cannot go back from this step")
)

// MissingRulesError lists required items that have no explicit choice yet.
type MissingRulesError struct {
	Items []string
}

func (e *MissingRulesError) Error() string {
	return "choose a rule for: " + strings.Join(e.Items, ", ")
}

// Step is a wizard state.
type Step int

const (
	StepLocation Step = iota
	StepStreamMode
	StepItemRules
	StepDone
)

var stepNames = [...]string{"location", "stream_mode", "item_rules", "done"}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

func (s Step) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Step) UnmarshalText(b []byte) error {
	for i, name := range stepNames {
		if name == string(b) {
			*s = Step(i)
			return nil
		}
	}
	return fmt.Errorf("setup: unknown step %q", b)
}

// Persister receives each step's save point.
type Persister interface {
	SaveLocation(ctx context.Context, location string) error
	SaveStreamMode(ctx context.Context, mode model.StreamMode) error
	SaveRule(ctx context.Context, itemTypeID string, rule model.Rule) error
	Complete(ctx context.Context) error
}

// Wizard is the editable setup draft. Rules holds only explicit choices,
// so an item the user marked not_sure counts as answered.
type Wizard struct {
	Step       Step                  `json:"step"`
	Location   string                `json:"location"`
	StreamMode model.StreamMode      `json:"stream_mode"`
	Rules      map[string]model.Rule `json:"rules"`
	Required   []string              `json:"required"`
}

// NewWizard pre-fills a draft from the current profile and recorded rules.
// profile may be nil for a user who has none yet.
func NewWizard(profile *model.Profile, rules []model.UserItemRule, required []string) *Wizard {
	w := &Wizard{
		Step:       StepLocation,
		StreamMode: model.StreamSingle,
		Rules:      make(map[string]model.Rule, len(rules)),
		Required:   append([]string(nil), required...),
	}
	if profile != nil {
		w.Location = profile.LocationLabel
		if profile.StreamMode.Valid() {
			w.StreamMode = profile.StreamMode
		}
	}
	for _, r := range rules {
		w.Rules[r.ItemTypeID] = r.Rule
	}
	return w
}

func (w *Wizard) SetLocation(location string) error {
	if w.Step == StepDone {
		return ErrFinished
	}
	w.Location = location
	return nil
}

func (w *Wizard) SetStreamMode(mode model.StreamMode) error {
	if w.Step == StepDone {
		return ErrFinished
	}
	if !mode.Valid() {
		return ErrStreamModeRequired
	}
	w.StreamMode = mode
	return nil
}

func (w *Wizard) SetRule(itemTypeID string, rule model.Rule) error {
	if w.Step == StepDone {
		return ErrFinished
	}
	if !rule.Valid() {
		return ErrInvalidRule
	}
	if w.Rules == nil {
		w.Rules = make(map[string]model.Rule)
	}
	w.Rules[itemTypeID] = rule
	return nil
}

// Missing returns the required items without an explicit rule.
func (w *Wizard) Missing() []string {
	var out []string
	for _, id := range w.Required {
		if _, ok := w.Rules[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// CanProceed reports whether the current step's guard passes.
func (w *Wizard) CanProceed() bool {
	switch w.Step {
	case StepLocation:
		return strings.TrimSpace(w.Location) != ""
	case StepStreamMode:
		return w.StreamMode.Valid()
	case StepItemRules:
		return len(w.Missing()) == 0
	}
	return false
}

// Next checks the current step's guard, runs its save point and advances.
// On any error the step is unchanged and edits are kept.
func (w *Wizard) Next(ctx context.Context, p Persister) error {
	switch w.Step {
	case StepLocation:
		loc := strings.TrimSpace(w.Location)
		if loc == "" {
			return ErrLocationRequired
		}
		if err := p.SaveLocation(ctx, loc); err != nil {
			return err
		}
		w.Location = loc
		w.Step = StepStreamMode
	case StepStreamMode:
		if !w.StreamMode.Valid() {
			return ErrStreamModeRequired
		}
		if err := p.SaveStreamMode(ctx, w.StreamMode); err != nil {
			return err
		}
		w.Step = StepItemRules
	case StepItemRules:
		if missing := w.Missing(); len(missing) > 0 {
			return &MissingRulesError{Items: missing}
		}
		ids := make([]string, 0, len(w.Rules))
		for id := range w.Rules {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		// Sequential; the first failure stops the save and completion is not set.
		for _, id := range ids {
			if err := p.SaveRule(ctx, id, w.Rules[id]); err != nil {
				return err
			}
		}
		if err := p.Complete(ctx); err != nil {
			return err
		}
		w.Step = StepDone
	default:
		return ErrFinished
	}
	return nil
}

// Back returns to the previous step, keeping edits.
func (w *Wizard) Back() error {
	switch w.Step {
	case StepStreamMode, StepItemRules:
		w.Step--
		return nil
	}
	return ErrCannotGoBack
}
