package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	id, ok := User("u1").UserID()
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
	assert.Equal(t, "user:u1", User("u1").String())

	_, ok = Anonymous.UserID()
	assert.False(t, ok)
	assert.True(t, Anonymous.IsAnonymous())
	assert.True(t, User("").IsAnonymous())
	assert.Equal(t, "anonymous", Identity{}.String())
}
