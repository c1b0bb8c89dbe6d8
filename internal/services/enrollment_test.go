package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddToSet(t *testing.T) {
	list, added := AddToSet(nil, "a")
	assert.True(t, added)
	assert.Equal(t, []string{"a"}, list)

	list, added = AddToSet(list, "b")
	assert.True(t, added)
	assert.Equal(t, []string{"a", "b"}, list)

	list, added = AddToSet(list, "a")
	assert.False(t, added)
	assert.Equal(t, []string{"a", "b"}, list)
}

func TestRemoveFromSet(t *testing.T) {
	list, removed := RemoveFromSet([]string{"a", "b", "c"}, "b")
	assert.True(t, removed)
	assert.Equal(t, []string{"a", "c"}, list)

	list, removed = RemoveFromSet(list, "missing")
	assert.False(t, removed)
	assert.Equal(t, []string{"a", "c"}, list)

	list, removed = RemoveFromSet(nil, "a")
	assert.False(t, removed)
	assert.Empty(t, list)
}

func TestDedup(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, Dedup([]string{"a", "b", "a", "c", "b"}))
	assert.Empty(t, Dedup(nil))
	assert.Equal(t, []string{"x"}, Dedup([]string{"x", "x", "x"}))
}

func TestDedupKeepsFirstOccurrenceOrder(t *testing.T) {
	assert.Equal(t, []string{"c", "a", "b"}, Dedup([]string{"c", "a", "c", "b", "a"}))
}
