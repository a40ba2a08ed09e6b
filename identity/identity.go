// Package identity holds the caller identity passed explicitly to every
// data-access call.
package identity

// Identity is either an authenticated user or Anonymous.
// The zero value is Anonymous.
type Identity struct {
	userID string
}

// Anonymous is the identity of a caller with no valid session.
var Anonymous = Identity{}

// User returns the identity of an authenticated user.
// An empty id yields Anonymous.
func User(userID string) Identity {
	return Identity{userID: userID}
}

// UserID returns the user id and whether the identity is authenticated.
func (i Identity) UserID() (string, bool) {
	return i.userID, i.userID != ""
}

func (i Identity) IsAnonymous() bool {
	return i.userID == ""
}

func (i Identity) String() string {
	if i.userID == "" {
		return "anonymous"
	}
	return "user:" + i.userID
}
