// Package bandit holds the closed set of hats the raccoon mascot can wear.
package bandit

// Hat is one cosmetic choice for the mascot.
type Hat struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Emoji string `json:"emoji"`
}

// DefaultHat is shown for unknown or empty ids.
const DefaultHat = "none"

// Hats lists every selectable hat in display order.
var Hats = []Hat{
	{ID: "none", Label: "No Hat"},
	{ID: "tophat", Label: "Top Hat", Emoji: "🎩"},
	{ID: "party", Label: "Party Hat", Emoji: "🥳"},
	{ID: "crown", Label: "Crown", Emoji: "👑"},
	{ID: "cowboy", Label: "Cowboy", Emoji: "🤠"},
	{ID: "wizard", Label: "Wizard Hat", Emoji: "🧙"},
	{ID: "cap", Label: "Baseball Cap", Emoji: "🧢"},
	{ID: "flower", Label: "Flower Crown", Emoji: "🌸"},
}

var byID = func() map[string]Hat {
	m := make(map[string]Hat, len(Hats))
	for _, h := range Hats {
		m[h.ID] = h
	}
	return m
}()

// Resolve returns the hat for id, falling back to DefaultHat.
func Resolve(id string) Hat {
	if h, ok := byID[id]; ok {
		return h
	}
	return byID[DefaultHat]
}

// Known reports whether id names a hat.
func Known(id string) bool {
	_, ok := byID[id]
	return ok
}
