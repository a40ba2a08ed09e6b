package model

// StreamMode describes how a municipal program collects recyclables.
type StreamMode string

const (
	StreamSingle StreamMode = "single" // everything in one bin
	StreamDouble StreamMode = "double" // paper separate from containers
)

func (m StreamMode) Valid() bool {
	return m == StreamSingle || m == StreamDouble
}

// Rule is a user's local acceptance status for a catalog item.
type Rule string

const (
	RuleAccepted    Rule = "accepted"
	RuleNotAccepted Rule = "not_accepted"
	RuleNotSure     Rule = "not_sure"
)

func (r Rule) Valid() bool {
	switch r {
	case RuleAccepted, RuleNotAccepted, RuleNotSure:
		return true
	}
	return false
}

// Bin is the double-stream bin an item goes into by default.
type Bin string

const (
	BinPaper      Bin = "paper"
	BinContainers Bin = "containers"
	BinSpecial    Bin = "special"
)

// FriendStatus is the state of a friend relationship.
type FriendStatus string

const (
	FriendPending  FriendStatus = "pending"
	FriendAccepted FriendStatus = "accepted"
	FriendDenied   FriendStatus = "denied"
)

// Terminal reports whether s is a valid answer to a pending request.
func (s FriendStatus) Terminal() bool {
	return s == FriendAccepted || s == FriendDenied
}
