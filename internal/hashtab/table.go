// Package hashtab implements a chained hash table keyed by interned
// strings, storing opaque values for its callers.
package hashtab

import "github.com/jcorbin/gofolly/internal/intern"

const numBuckets = 32

type entry[V any] struct {
	key   *intern.Str
	value V
	next  *entry[V]
}

// Table maps interned strings to values through a fixed set of chained
// buckets. The zero value is an empty table ready for use.
type Table[V any] struct {
	buckets [numBuckets]*entry[V]
	size    int
}

// New returns an empty table.
func New[V any]() *Table[V] {
	return &Table[V]{}
}

// Len returns the number of entries.
func (t *Table[V]) Len() int { return t.size }

func (t *Table[V]) bucket(key *intern.Str) int {
	return int(key.Hash() % numBuckets)
}

// Put inserts key=value, returning any displaced value. The table does
// not retain the key or value itself; ownership accounting is the
// caller's.
func (t *Table[V]) Put(key *intern.Str, value V) (prior V, displaced bool) {
	i := t.bucket(key)
	for e := t.buckets[i]; e != nil; e = e.next {
		if intern.Equal(e.key, key) {
			prior, e.value = e.value, value
			return prior, true
		}
	}
	t.buckets[i] = &entry[V]{key: key, value: value, next: t.buckets[i]}
	t.size++
	return prior, false
}

// Get returns the value for key, if present.
func (t *Table[V]) Get(key *intern.Str) (V, bool) {
	for e := t.buckets[t.bucket(key)]; e != nil; e = e.next {
		if intern.Equal(e.key, key) {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes key, returning the value it held, if any. The stored
// key is handed to the caller for release via the removed return.
func (t *Table[V]) Remove(key *intern.Str) (removedKey *intern.Str, value V, ok bool) {
	i := t.bucket(key)
	for p, e := &t.buckets[i], t.buckets[i]; e != nil; p, e = &e.next, e.next {
		if intern.Equal(e.key, key) {
			*p = e.next
			t.size--
			return e.key, e.value, true
		}
	}
	var zero V
	return nil, zero, false
}

// Each calls fn for every entry until fn returns false. Iteration order
// is unspecified; callers must not mutate the table during iteration.
func (t *Table[V]) Each(fn func(key *intern.Str, value V) bool) {
	for _, e := range &t.buckets {
		for ; e != nil; e = e.next {
			if !fn(e.key, e.value) {
				return
			}
		}
	}
}

// Drain removes every entry, passing each to fn, and leaves the empty
// buckets in place so the table can be reused without reallocation.
func (t *Table[V]) Drain(fn func(key *intern.Str, value V)) {
	for i, e := range &t.buckets {
		t.buckets[i] = nil
		for ; e != nil; e = e.next {
			if fn != nil {
				fn(e.key, e.value)
			}
		}
	}
	t.size = 0
}
