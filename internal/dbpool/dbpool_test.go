package dbpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// These tests exercise the bounded-acquire semaphore in isolation from a
// live MySQL server: they manipulate the Pool's slot channel directly rather
// than going through Get/Release, which require a real database/sql.Conn.

func newTestPool(maxCount int) *Pool {
	return &Pool{sem: make(chan struct{}, maxCount), size: maxCount}
}

func TestFreeCountReflectsOutstandingSlots(t *testing.T) {
	p := newTestPool(3)
	assert.Equal(t, 3, p.FreeCount())

	p.sem <- struct{}{}
	p.sem <- struct{}{}
	assert.Equal(t, 1, p.FreeCount())

	<-p.sem
	assert.Equal(t, 2, p.FreeCount())
}

func TestGetBlocksUntilContextDoneWhenExhausted(t *testing.T) {
	p := newTestPool(1)
	p.sem <- struct{}{} // occupy the only slot

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Get(ctx)
	assert.Error(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}

type mockQuerier struct {
	users map[string]string
}

func newMockQuerier() *mockQuerier {
	return &mockQuerier{users: make(map[string]string)}
}

func (m *mockQuerier) UserExists(ctx context.Context, username string) (string, bool, error) {
	pw, ok := m.users[username]
	return pw, ok, nil
}

func (m *mockQuerier) CreateUser(ctx context.Context, username, password string) error {
	m.users[username] = password
	return nil
}

func TestMockQuerierRoundTrip(t *testing.T) {
	var q Querier = newMockQuerier()

	_, found, err := q.UserExists(context.Background(), "alice")
	assert.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, q.CreateUser(context.Background(), "alice", "hunter2"))

	pw, found, err := q.UserExists(context.Background(), "alice")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "hunter2", pw)
}
