package tinyweb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMockQuerierTracksCallCounts(t *testing.T) {
	q := NewMockQuerier()
	q.Seed("alice", "hunter2")

	pw, found, err := q.UserExists(context.Background(), "alice")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hunter2", pw)

	assert.NoError(t, q.CreateUser(context.Background(), "bob", "secret"))
	assert.Equal(t, 1, q.ExistsCalls())
	assert.Equal(t, 1, q.CreateCalls())
}
