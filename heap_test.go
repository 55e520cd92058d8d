package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeapRootSurvival(t *testing.T) {
	rt := New()
	v := rt.newNumber(42)
	rt.heap.addRoot(v)
	defer rt.heap.removeRoot(v)

	for i := 0; i < 3; i++ {
		rt.heap.gc()
	}
	assert.Equal(t, numberVal, v.kind, "rooted value survives collection")
	assert.Equal(t, 42, v.number)
}

func TestHeapReachableSurvival(t *testing.T) {
	rt := New()
	holder := rt.newHash()
	rt.heap.addRoot(holder)
	defer rt.heap.removeRoot(holder)

	key := internKey("held")
	defer key.Release()
	v := rt.newNumber(7)
	rt.hashPut(holder, key, v)
	rt.release(v)

	rt.heap.gc()
	assert.Equal(t, numberVal, v.kind, "value reachable through a rooted container survives")

	list := rt.newList()
	rt.heap.addRoot(list)
	defer rt.heap.removeRoot(list)
	elem := rt.newNumber(9)
	rt.listAppend(list, elem)
	rt.release(elem)

	rt.heap.gc()
	assert.Equal(t, numberVal, elem.kind, "list elements are marked")
}

func TestHeapReleaseReclaimsEagerly(t *testing.T) {
	rt := New()
	v := rt.newNumber(7)
	rt.release(v)
	assert.Equal(t, freeVal, v.kind, "last release runs the destructor immediately")

	w := rt.newNumber(13)
	rt.retain(w)
	rt.release(w)
	assert.Equal(t, numberVal, w.kind, "a retained value stays live")
	rt.release(w)
	assert.Equal(t, freeVal, w.kind)
}

func TestHeapCollectsCycles(t *testing.T) {
	rt := New()
	key := internKey("other")
	defer key.Release()

	a := rt.newHash()
	b := rt.newHash()
	rt.hashPut(a, key, b)
	rt.hashPut(b, key, a)
	rt.release(a)
	rt.release(b)

	// the mutual references keep both counts positive, so only the
	// collector can reclaim them
	assert.Equal(t, hashVal, a.kind)
	assert.Equal(t, hashVal, b.kind)

	rt.heap.gc()
	assert.Equal(t, freeVal, a.kind, "unreachable cycle is swept")
	assert.Equal(t, freeVal, b.kind, "unreachable cycle is swept")
}

func TestHeapSlotReuse(t *testing.T) {
	rt := New()
	v := rt.newNumber(1)
	rt.release(v)
	w := rt.newNumber(2)
	assert.Same(t, v, w, "a freed slot is reused before bump allocation")
}

func TestHeapBucketGrowth(t *testing.T) {
	const chunk = 8
	rt := New(WithChunkSize(chunk))

	pin := rt.newList()
	rt.heap.addRoot(pin)
	defer rt.heap.removeRoot(pin)

	before := rt.heap.stats()
	for i := 0; i < 3*chunk; i++ {
		v := rt.newNumber(i)
		rt.listAppend(pin, v)
		rt.release(v)
	}
	after := rt.heap.stats()

	grown := after.chunks - before.chunks
	assert.True(t, grown >= 3, "filling three chunks worth must grow the bucket")
	assert.Equal(t, uint(grown), after.gcRuns-before.gcRuns,
		"each growth is preceded by exactly one collection attempt")
}

func TestHeapLimit(t *testing.T) {
	// generous enough for the builtin bootstrap, small enough for the
	// allocation storm below to hit
	const chunk = 8
	rt := New(WithChunkSize(chunk), WithHeapLimit(uint(20*chunk)))

	pin := rt.newList()
	rt.heap.addRoot(pin)
	defer rt.heap.removeRoot(pin)

	assert.Panics(t, func() {
		for i := 0; i < 32*chunk; i++ {
			v := rt.newNumber(i)
			rt.listAppend(pin, v)
			rt.release(v)
		}
	}, "exhausting the limited heap is fatal")
}

func TestHeapSweepDropsOwnedStrings(t *testing.T) {
	rt := New()
	str := internKey("doomed contents")
	v := rt.newString(str)
	assert.Equal(t, 2, str.Refs(), "the value holds its own share")

	rt.heap.gc()
	assert.Equal(t, freeVal, v.kind)
	assert.Equal(t, 1, str.Refs(), "sweep releases the string payload exactly once")
	str.Release()
}
