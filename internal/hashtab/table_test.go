package hashtab

import (
	"fmt"
	"testing"

	"github.com/jcorbin/gofolly/internal/intern"
	"github.com/stretchr/testify/assert"
)

func key(s string) *intern.Str { return intern.NewString(s) }

func TestPutGet(t *testing.T) {
	tab := New[string]()

	_, had := tab.Put(key("key1"), "value1")
	assert.False(t, had)
	assert.Equal(t, 1, tab.Len(), "put did not increment size")
	got, ok := tab.Get(key("key1"))
	assert.True(t, ok)
	assert.Equal(t, "value1", got)

	tab.Put(key("key2"), "value2")
	assert.Equal(t, 2, tab.Len(), "put did not increment size")
	got, ok = tab.Get(key("key2"))
	assert.True(t, ok)
	assert.Equal(t, "value2", got)

	_, ok = tab.Get(key("key3"))
	assert.False(t, ok, "get of an absent key must miss")
}

func TestOverwrite(t *testing.T) {
	tab := New[string]()
	tab.Put(key("key1"), "value1")
	prior, had := tab.Put(key("key1"), "value1_1")
	assert.True(t, had, "overwrite must report the displaced value")
	assert.Equal(t, "value1", prior)
	assert.Equal(t, 1, tab.Len(), "overwriting a key changed the size")
	got, _ := tab.Get(key("key1"))
	assert.Equal(t, "value1_1", got)
}

func TestRemove(t *testing.T) {
	tab := New[int]()
	k := key("gone")
	tab.Put(k, 42)
	removedKey, val, ok := tab.Remove(key("gone"))
	assert.True(t, ok)
	assert.Equal(t, 42, val)
	assert.Same(t, k, removedKey, "remove hands back the stored key")
	assert.Equal(t, 0, tab.Len())
	_, _, ok = tab.Remove(key("gone"))
	assert.False(t, ok)
}

func TestIterate(t *testing.T) {
	const count = 1024
	tab := New[int]()
	for i := 0; i < count; i++ {
		tab.Put(key(fmt.Sprintf("key-%d", i)), i)
	}
	assert.Equal(t, count, tab.Len(), "failed to create all elements")

	marks := make([]bool, count)
	marked := 0
	tab.Each(func(k *intern.Str, v int) bool {
		marks[v] = true
		marked++
		return true
	})
	assert.Equal(t, count, marked, "iteration did not yield enough values")
	for i, mark := range marks {
		if !mark {
			t.Errorf("missed index %v", i)
		}
	}
}

func TestDrainKeepsBuckets(t *testing.T) {
	tab := New[int]()
	for i := 0; i < 64; i++ {
		tab.Put(key(fmt.Sprintf("k%d", i)), i)
	}
	drained := 0
	tab.Drain(func(k *intern.Str, v int) { drained++ })
	assert.Equal(t, 64, drained)
	assert.Equal(t, 0, tab.Len())

	tab.Put(key("again"), 1)
	got, ok := tab.Get(key("again"))
	assert.True(t, ok, "a drained table must accept new entries")
	assert.Equal(t, 1, got)
}
