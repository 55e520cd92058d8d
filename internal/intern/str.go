// Package intern provides immutable reference-counted byte strings with
// memoised content hashes, shared as map keys and identifier names.
package intern

// Str is an immutable byte string. Two Strs are equal when their contents
// are equal; logically equal Strs need not be the same object.
type Str struct {
	bytes  []byte
	refs   int
	hash   uint32
	hashed bool
}

// New copies b into a fresh Str with a reference count of one.
func New(b []byte) *Str {
	s := &Str{bytes: make([]byte, len(b)), refs: 1}
	copy(s.bytes, b)
	return s
}

// NewString is New for string contents.
func NewString(str string) *Str {
	return &Str{bytes: []byte(str), refs: 1}
}

// Retain adds a reference.
func (s *Str) Retain() *Str {
	s.refs++
	return s
}

// Release drops a reference; the last release frees the backing storage.
func (s *Str) Release() {
	s.refs--
	if s.refs == 0 {
		s.bytes = nil
	}
}

// Refs returns the current reference count.
func (s *Str) Refs() int { return s.refs }

// Len returns the content length in bytes.
func (s *Str) Len() int { return len(s.bytes) }

// String returns the contents as a Go string.
func (s *Str) String() string { return string(s.bytes) }

// Bytes returns the backing contents; callers must not modify them.
func (s *Str) Bytes() []byte { return s.bytes }

// Equal reports content equality.
func Equal(a, b *Str) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || len(a.bytes) != len(b.bytes) {
		return false
	}
	for i, c := range a.bytes {
		if b.bytes[i] != c {
			return false
		}
	}
	return true
}

// Hash returns the content hash, computing it on first call and the
// memoised result thereafter.
func (s *Str) Hash() uint32 {
	if !s.hashed {
		const offset32, prime32 = 2166136261, 16777619
		h := uint32(offset32)
		for _, c := range s.bytes {
			h ^= uint32(c)
			h *= prime32
		}
		s.hash = h
		s.hashed = true
	}
	return s.hash
}
