package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jcorbin/gofolly/internal/hashtab"
	"github.com/jcorbin/gofolly/internal/intern"
)

// valKind tags the payload variant carried by a value.
type valKind int

const (
	freeVal valKind = iota // unused heap slot
	numberVal
	stringVal
	booleanVal
	listVal
	hashVal
	nativeVal
	deferredVal
)

var valKindNames = [...]string{
	"free",
	"number",
	"string",
	"boolean",
	"list",
	"hash",
	"native function",
	"deferred expression",
}

func (k valKind) String() string {
	if k >= 0 && int(k) < len(valKindNames) {
		return valKindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// nativeFunc is a built-in operation bound as a callable value. It
// receives its bound receiver and the raw (uncoalesced) argument list.
type nativeFunc func(rt *Runtime, self, args *value) *value

// deferredExpr pairs an expression with the environment it was
// encountered in; evaluating it re-enters the evaluator against that
// environment.
type deferredExpr struct {
	expr *expression
	ctx  *value
}

// value is the single polymorphic runtime value. Every live value owns
// a member map; the payload fields are tagged by kind. Values live in
// heap chunk slots and are reclaimed through the chunk free lists.
type value struct {
	kind    valKind
	refs    int
	reached bool

	number   int
	boolean  bool
	str      *intern.Str
	list     []*value
	native   nativeFunc
	deferred deferredExpr
	ext      *fileExt

	members *hashtab.Table[*value]

	home *chunk
}

// newValue allocates a fresh value whose prototype is the object root
// (when one exists yet).
func (rt *Runtime) newValue(kind valKind) *value {
	v := rt.heap.alloc(valueSize)
	v.kind = kind
	if rt.objectRoot != nil {
		rt.hashPut(v, rt.keyParent, rt.objectRoot)
	}
	return v
}

func (rt *Runtime) newChild(kind valKind, parent *value) *value {
	v := rt.heap.alloc(valueSize)
	v.kind = kind
	if parent != nil {
		rt.hashPut(v, rt.keyParent, parent)
	}
	return v
}

func (rt *Runtime) newHash() *value { return rt.newValue(hashVal) }

func (rt *Runtime) newHashChild(parent *value) *value { return rt.newChild(hashVal, parent) }

func (rt *Runtime) newList() *value {
	return rt.newChild(listVal, rt.protoOr(rt.protoList))
}

func (rt *Runtime) newNumber(n int) *value {
	v := rt.newChild(numberVal, rt.protoOr(rt.protoNumber))
	v.number = n
	return v
}

// newString retains str for the lifetime of the value.
func (rt *Runtime) newString(str *intern.Str) *value {
	v := rt.newChild(stringVal, rt.protoOr(rt.protoString))
	v.str = str.Retain()
	return v
}

// newStringOf interns and wraps a Go string.
func (rt *Runtime) newStringOf(s string) *value {
	str := intern.NewString(s)
	v := rt.newString(str)
	str.Release()
	return v
}

func (rt *Runtime) newBoolean(b bool) *value {
	v := rt.newChild(booleanVal, rt.protoOr(rt.protoBoolean))
	v.boolean = b
	return v
}

func (rt *Runtime) newNative(fn nativeFunc) *value {
	v := rt.newValue(nativeVal)
	v.native = fn
	return v
}

// newDeferred captures expr in ctx, taking a share of the AST.
func (rt *Runtime) newDeferred(expr *expression, ctx *value) *value {
	v := rt.newValue(deferredVal)
	v.deferred = deferredExpr{expr: expr.retain(), ctx: ctx}
	return v
}

func (rt *Runtime) protoOr(proto *value) *value {
	if proto != nil {
		return proto
	}
	return rt.objectRoot
}

func (rt *Runtime) retain(v *value) *value {
	if v != nil {
		v.refs++
	}
	return v
}

func (rt *Runtime) release(v *value) {
	if v == nil || v.kind == freeVal {
		return
	}
	v.refs--
	if v.refs <= 0 {
		rt.heap.destroy(v, true)
	}
}

// listAppend retains elem and appends it to list.
func (rt *Runtime) listAppend(list, elem *value) {
	list.list = append(list.list, rt.retain(elem))
}

// hashPut installs key=val in v's own member map, retaining both and
// releasing any displaced value. The stored value is returned.
func (rt *Runtime) hashPut(v *value, key *intern.Str, val *value) *value {
	key.Retain()
	rt.retain(val)
	if prior, had := v.members.Put(key, val); had {
		// the table kept its original key object; drop the ref taken
		// for this put alongside the displaced value's
		key.Release()
		rt.release(prior)
	}
	return val
}

// hashGetLocal looks key up in v's own member map only.
func (v *value) hashGetLocal(key *intern.Str) *value {
	if got, ok := v.members.Get(key); ok {
		return got
	}
	return nil
}

// hashLookup walks the prototype chain from v without binding,
// returning the resolved value and the value that provided it. The walk
// guards against __parent__ cycles by refusing to revisit a value.
func (rt *Runtime) hashLookup(v *value, key *intern.Str) (got, provider *value) {
	var visited []*value
	for cur := v; cur != nil; {
		for _, seen := range visited {
			if seen == cur {
				return nil, nil
			}
		}
		visited = append(visited, cur)
		if got, ok := cur.members.Get(key); ok {
			return got, cur
		}
		cur = cur.hashGetLocal(rt.keyParent)
	}
	return nil, nil
}

// hashGet resolves key against v's prototype chain. An inherited
// callable whose self is unbound, or still bound to the prototype that
// provided it, is cloned, rebound to v, and installed into v's own
// member map so subsequent lookups are direct. Callables provided by
// the top-level environment are exempt and keep their binding.
func (rt *Runtime) hashGet(v *value, key *intern.Str) *value {
	got, provider := rt.hashLookup(v, key)
	if got == nil {
		return nil
	}
	if provider == rt.topLevel && provider != v {
		return got
	}
	if !rt.isCallable(got) {
		return got
	}
	self := rt.getSelf(got)
	if self == v {
		return got
	}
	if self != nil && self != provider {
		return got
	}
	bound := rt.cloneValue(got)
	rt.hashPut(bound, rt.keySelf, v)
	rt.hashPut(v, key, bound)
	rt.release(bound)
	return bound
}

// hashPutAll shallow-copies members from src into dst, skipping the
// prototype link.
func (rt *Runtime) hashPutAll(dst, src *value) {
	src.members.Each(func(key *intern.Str, val *value) bool {
		if !intern.Equal(key, rt.keyParent) {
			rt.hashPut(dst, key, val)
		}
		return true
	})
}

// bindFunction installs site as fn's receiver.
func (rt *Runtime) bindFunction(fn, site *value) {
	rt.hashPut(fn, rt.keySelf, site)
}

// getSelf returns fn's bound receiver, if any.
func (rt *Runtime) getSelf(fn *value) *value {
	return fn.hashGetLocal(rt.keySelf)
}

// isCallable reports whether v can be invoked: a native function, or a
// hash carrying both an argument descriptor list and a body expression.
func (rt *Runtime) isCallable(v *value) bool {
	if v == nil {
		return false
	}
	if v.kind == nativeVal {
		return true
	}
	if v.kind != hashVal {
		return false
	}
	args, _ := rt.hashLookup(v, rt.keyArgs)
	if args == nil {
		return false
	}
	expr, _ := rt.hashLookup(v, rt.keyExpr)
	return expr != nil
}

// isTrue gives the language truth of v: numbers by non-zero, strings by
// case-insensitive "true", booleans by payload, anything else true.
func (rt *Runtime) isTrue(v *value) bool {
	if v == nil {
		return false
	}
	switch v.kind {
	case numberVal:
		return v.number != 0
	case stringVal:
		return strings.EqualFold(v.str.String(), "true")
	case booleanVal:
		return v.boolean
	}
	return true
}

// cloneValue produces a copy of a hash or native-function value with a
// deep-copied member map; callables bound to the source (or unbound)
// are themselves cloned and rebound to the copy.
func (rt *Runtime) cloneValue(src *value) *value {
	switch src.kind {
	case hashVal, nativeVal:
	default:
		rt.halt(typeErrorf("clone", "cannot clone a %v value", src.kind))
	}
	dst := rt.heap.alloc(valueSize)
	dst.kind = src.kind
	dst.native = src.native
	rt.heap.addRoot(dst)
	rt.cloneMembersInto(dst, src)
	rt.heap.removeRoot(dst)
	return dst
}

func (rt *Runtime) cloneMembersInto(dst, src *value) {
	src.members.Each(func(key *intern.Str, val *value) bool {
		if intern.Equal(key, rt.keySelf) {
			return true
		}
		if rt.isCallable(val) {
			if self := rt.getSelf(val); self == nil || self == src {
				method := rt.cloneValue(val)
				rt.hashPut(method, rt.keySelf, dst)
				rt.hashPut(dst, key, method)
				rt.release(method)
				return true
			}
		}
		rt.hashPut(dst, key, val)
		return true
	})
}

// valueString renders v for display through the to_string protocol's
// default implementation.
func (rt *Runtime) valueString(v *value) string {
	if v == nil {
		return "null"
	}
	switch v.kind {
	case numberVal:
		return strconv.Itoa(v.number)
	case stringVal:
		return v.str.String()
	case booleanVal:
		if v.boolean {
			return "true"
		}
		return "false"
	case listVal:
		var sb strings.Builder
		sb.WriteByte('(')
		for i, elem := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(rt.valueString(elem))
		}
		sb.WriteByte(')')
		return sb.String()
	case hashVal:
		var sb strings.Builder
		sb.WriteByte('{')
		first := true
		v.members.Each(func(key *intern.Str, val *value) bool {
			// render data members only: the prototype link and any
			// (auto-bound) callables are behaviour, not contents
			if intern.Equal(key, rt.keyParent) || rt.isCallable(val) {
				return true
			}
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(key.String())
			sb.WriteString(": ")
			sb.WriteString(rt.valueString(val))
			return true
		})
		sb.WriteByte('}')
		return sb.String()
	case nativeVal:
		return "<native function>"
	case deferredVal:
		return "<deferred " + v.deferred.expr.String() + ">"
	}
	return "<" + v.kind.String() + ">"
}
