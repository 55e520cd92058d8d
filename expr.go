package main

import (
	"strconv"
	"strings"

	"github.com/jcorbin/gofolly/internal/hashtab"
	"github.com/jcorbin/gofolly/internal/intern"
)

type exprKind int

const (
	propRefExpr exprKind = iota
	propSetExpr
	invokeExpr
	listLitExpr
	hashLitExpr
	primitiveExpr
	deferExpr
	funcDeclExpr
	exprListExpr
)

// propRef names a property, optionally of an evaluated site; a nil
// site refers into the current context.
type propRef struct {
	site *expression
	name *intern.Str
}

type propSet struct {
	ref   *propRef
	value *expression
}

// invocation applies a function expression to either a list-arg or a
// hash-arg expression; exactly one is set.
type invocation struct {
	fn       *expression
	listArgs *expression
	hashArgs *expression
}

type funcDecl struct {
	args *expression
	body *expression
}

// expression is one AST node. Nodes are reference counted because
// deferred-expression values hold strong references to the subtrees
// they capture.
type expression struct {
	kind exprKind
	refs int

	ref      *propRef
	set      *propSet
	inv      *invocation
	list     []*expression
	hash     *hashtab.Table[*expression]
	prim     *value
	deferred *expression
	fn       *funcDecl
}

func newExpr(kind exprKind) *expression {
	return &expression{kind: kind, refs: 1}
}

func (e *expression) retain() *expression {
	e.refs++
	return e
}

// releaseExpr drops a share of e, destroying it when the last share is
// released: owned names and primitives are released and child nodes are
// released recursively (stopping wherever a deferred value still holds
// a share).
func (rt *Runtime) releaseExpr(e *expression) {
	if e == nil {
		return
	}
	e.refs--
	if e.refs > 0 {
		return
	}
	switch e.kind {
	case propRefExpr:
		rt.releaseRef(e.ref)
	case propSetExpr:
		rt.releaseRef(e.set.ref)
		rt.releaseExpr(e.set.value)
	case invokeExpr:
		rt.releaseExpr(e.inv.fn)
		rt.releaseExpr(e.inv.listArgs)
		rt.releaseExpr(e.inv.hashArgs)
	case listLitExpr, exprListExpr:
		for _, sub := range e.list {
			rt.releaseExpr(sub)
		}
	case hashLitExpr:
		e.hash.Drain(func(key *intern.Str, sub *expression) {
			key.Release()
			rt.releaseExpr(sub)
		})
	case primitiveExpr:
		rt.release(e.prim)
	case deferExpr:
		rt.releaseExpr(e.deferred)
	case funcDeclExpr:
		rt.releaseExpr(e.fn.args)
		rt.releaseExpr(e.fn.body)
	}
}

func (rt *Runtime) releaseRef(ref *propRef) {
	ref.name.Release()
	rt.releaseExpr(ref.site)
}

// String serialises the node back to source form. Primitive values
// render as literals, so the primitive-producing subset round-trips.
func (e *expression) String() string {
	var sb strings.Builder
	e.format(&sb)
	return sb.String()
}

func (e *expression) format(sb *strings.Builder) {
	switch e.kind {
	case propRefExpr:
		e.ref.format(sb)
	case propSetExpr:
		e.set.ref.format(sb)
		sb.WriteString(": ")
		e.set.value.format(sb)
	case invokeExpr:
		e.inv.fn.format(sb)
		if e.inv.listArgs != nil {
			e.inv.listArgs.format(sb)
		} else {
			e.inv.hashArgs.format(sb)
		}
	case listLitExpr, exprListExpr:
		sb.WriteByte('(')
		for i, sub := range e.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			sub.format(sb)
		}
		sb.WriteByte(')')
	case hashLitExpr:
		sb.WriteByte('{')
		first := true
		e.hash.Each(func(key *intern.Str, sub *expression) bool {
			if !first {
				sb.WriteString(", ")
			}
			first = false
			sb.WriteString(key.String())
			sb.WriteString(": ")
			sub.format(sb)
			return true
		})
		sb.WriteByte('}')
	case primitiveExpr:
		formatPrimitive(sb, e.prim)
	case deferExpr:
		sb.WriteByte('`')
		e.deferred.format(sb)
	case funcDeclExpr:
		e.fn.args.format(sb)
		sb.WriteString(" -> ")
		e.fn.body.format(sb)
	}
}

func (ref *propRef) format(sb *strings.Builder) {
	if ref.site != nil {
		ref.site.format(sb)
		sb.WriteByte('.')
	}
	sb.WriteString(ref.name.String())
}

func formatPrimitive(sb *strings.Builder, v *value) {
	if v == nil {
		sb.WriteString("null")
		return
	}
	switch v.kind {
	case numberVal:
		sb.WriteString(strconv.Itoa(v.number))
	case stringVal:
		sb.WriteByte('"')
		for _, c := range v.str.Bytes() {
			if c == '"' || c == '\\' {
				sb.WriteByte('\\')
			}
			sb.WriteByte(c)
		}
		sb.WriteByte('"')
	case booleanVal:
		if v.boolean {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	default:
		sb.WriteString("<" + v.kind.String() + ">")
	}
}
