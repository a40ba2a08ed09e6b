package batch

import (
	"github.com/banditrecycle/server/model"
)

// BinLabel tells the user where an item goes. Single-stream programs use
// one bin for everything regardless of the item's double-stream bin.
func BinLabel(mode model.StreamMode, bin model.Bin) string {
	if mode != model.StreamDouble {
		return "♻️ Recycling bin (single-stream)"
	}
	switch bin {
	case model.BinPaper:
		return "📰 Paper bin"
	case model.BinContainers:
		return "📦 Containers bin"
	default:
		return "⚠️ Special handling"
	}
}

// RuleStatus is the headline shown for a rule.
func RuleStatus(rule model.Rule) string {
	switch rule {
	case model.RuleAccepted:
		return "✅ Accepted in your program"
	case model.RuleNotAccepted:
		return "Not accepted in your program"
	default:
		return "❓ Check your local program"
	}
}

// Guidance is the per-item drawer content.
type Guidance struct {
	Item              model.ItemType `json:"item"`
	Rule              model.Rule     `json:"rule"`
	Status            string         `json:"status"`
	BinLabel          string         `json:"bin_label"`
	PrepSteps         []string       `json:"prep_steps"`
	NeedsConfirmation bool           `json:"needs_confirmation"`
	CanQuickSetRule   bool           `json:"can_quick_set_rule"`
}

// NewGuidance builds the drawer for item under the user's rule and stream mode.
// An empty rule is treated as not_sure.
func NewGuidance(item model.ItemType, rule model.Rule, mode model.StreamMode) Guidance {
	if !rule.Valid() {
		rule = model.RuleNotSure
	}
	steps := []string(item.DefaultPrepSteps)
	if steps == nil {
		steps = []string{}
	}
	return Guidance{
		Item:              item,
		Rule:              rule,
		Status:            RuleStatus(rule),
		BinLabel:          BinLabel(mode, item.DefaultBinDoubleStream),
		PrepSteps:         steps,
		NeedsConfirmation: rule == model.RuleNotAccepted,
		CanQuickSetRule:   rule == model.RuleNotSure,
	}
}
