package cache

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(ttl time.Duration, maxEntries int) (*SnapshotCache, *time.Time) {
	current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewSnapshotCache(Config{TTL: ttl, MaxEntries: maxEntries})
	c.now = func() time.Time { return current }
	return c, &current
}

func TestSnapshotCacheExpires(t *testing.T) {
	c, now := newTestCache(time.Minute, 10)
	c.Set("job-1", json.RawMessage(`{"status":"complete"}`))

	value, ok := c.Get("job-1")
	require.True(t, ok)
	assert.JSONEq(t, `{"status":"complete"}`, string(value))

	*now = now.Add(2 * time.Minute)
	_, ok = c.Get("job-1")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestSnapshotCacheEvictsOldest(t *testing.T) {
	c, now := newTestCache(time.Hour, 2)
	c.Set("a", json.RawMessage(`1`))
	*now = now.Add(time.Second)
	c.Set("b", json.RawMessage(`2`))
	*now = now.Add(time.Second)
	c.Set("c", json.RawMessage(`3`))

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestSnapshotCacheReturnsCopies(t *testing.T) {
	c, _ := newTestCache(time.Hour, 2)
	original := json.RawMessage(`"x"`)
	c.Set("a", original)
	original[1] = 'y'

	value, _ := c.Get("a")
	assert.Equal(t, `"x"`, string(value))
}
