package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemorySetGet(t *testing.T) {
	c := NewMemory()
	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("django_version", "5.2.1", 0)
	v, ok := c.Get("django_version")
	assert.True(t, ok)
	assert.Equal(t, "5.2.1", v)

	c.Delete("django_version")
	_, ok = c.Get("django_version")
	assert.False(t, ok)
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	now := time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("django_version", "5.2", 10*time.Minute)
	v, ok := c.Get("django_version")
	assert.True(t, ok)
	assert.Equal(t, "5.2", v)

	now = now.Add(11 * time.Minute)
	_, ok = c.Get("django_version")
	assert.False(t, ok)
}
