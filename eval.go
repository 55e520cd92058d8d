package main

import (
	"fmt"

	"github.com/jcorbin/gofolly/internal/intern"
)

// eval walks one expression against a context value serving as the
// lexical environment. The result is an owned handle: callers release
// it when done. Containers under construction are registered as GC
// roots for any window in which further evaluation could allocate.
func (rt *Runtime) eval(e *expression, ctx *value) *value {
	switch e.kind {
	case propRefExpr:
		return rt.evalPropRef(e.ref, ctx)
	case propSetExpr:
		return rt.evalPropSet(e.set, ctx)
	case listLitExpr:
		return rt.evalListLiteral(e, ctx)
	case hashLitExpr:
		return rt.evalHashLiteral(e, ctx)
	case primitiveExpr:
		return rt.retain(e.prim)
	case invokeExpr:
		return rt.evalInvocation(e.inv, ctx)
	case deferExpr:
		return rt.newDeferred(e.deferred, ctx)
	case funcDeclExpr:
		return rt.evalFuncDecl(e.fn, ctx)
	case exprListExpr:
		return rt.evalSeq(e.list, ctx)
	}
	rt.halt(fmt.Errorf("unknown expression kind %v", e.kind))
	return nil
}

// evalSeq evaluates expressions in order; the last result is returned
// and the rest are released as they are displaced.
func (rt *Runtime) evalSeq(list []*expression, ctx *value) *value {
	var result *value
	for _, e := range list {
		rt.checkCtx()
		next := rt.eval(e, ctx)
		rt.release(result)
		result = next
	}
	return result
}

func (rt *Runtime) evalPropRef(ref *propRef, ctx *value) *value {
	site, owned := rt.refSite(ref, ctx)
	if owned {
		rt.heap.addRoot(site)
	}
	val := rt.hashGet(site, ref.name)
	if val == nil {
		rt.halt(lookupError{name: ref.name.String(), kind: site.kind})
	}
	rt.retain(val)
	if owned {
		rt.heap.removeRoot(site)
		rt.release(site)
	}
	return val
}

func (rt *Runtime) evalPropSet(set *propSet, ctx *value) *value {
	site, owned := rt.refSite(set.ref, ctx)
	rt.heap.addRoot(site)
	if site.kind != hashVal {
		rt.halt(siteError{kind: site.kind, name: set.ref.name.String()})
	}
	val := rt.eval(set.value, ctx)
	rt.hashPut(site, set.ref.name, val)
	rt.heap.removeRoot(site)
	if owned {
		rt.release(site)
	}
	return val
}

// refSite resolves a reference's site expression, or borrows the
// context when there is none. The owned result reports whether the
// caller holds (and must release) a fresh handle.
func (rt *Runtime) refSite(ref *propRef, ctx *value) (site *value, owned bool) {
	if ref.site == nil {
		return ctx, false
	}
	return rt.eval(ref.site, ctx), true
}

func (rt *Runtime) evalListLiteral(e *expression, ctx *value) *value {
	list := rt.newList()
	rt.heap.addRoot(list)
	for _, sub := range e.list {
		elem := rt.eval(sub, ctx)
		rt.listAppend(list, elem)
		rt.release(elem)
	}
	rt.heap.removeRoot(list)
	return list
}

func (rt *Runtime) evalHashLiteral(e *expression, ctx *value) *value {
	result := rt.newHash()
	rt.heap.addRoot(result)
	e.hash.Each(func(key *intern.Str, sub *expression) bool {
		val := rt.eval(sub, ctx)
		rt.hashPut(result, key, val)
		rt.release(val)
		return true
	})
	rt.heap.removeRoot(result)
	return result
}

// evalFuncDecl builds a user-defined function: a hash carrying its
// argument descriptors and a deferred body capturing the declaration
// context.
func (rt *Runtime) evalFuncDecl(fd *funcDecl, ctx *value) *value {
	fn := rt.newHash()
	rt.heap.addRoot(fn)

	defaults := rt.buildArgList(fd.args, ctx, true)
	rt.hashPut(fn, rt.keyArgs, defaults)
	rt.release(defaults)

	body := rt.newDeferred(fd.body, ctx)
	rt.hashPut(fn, rt.keyExpr, body)
	rt.release(body)

	rt.heap.removeRoot(fn)
	return fn
}

func (rt *Runtime) evalInvocation(inv *invocation, ctx *value) *value {
	fn := rt.eval(inv.fn, ctx)
	rt.heap.addRoot(fn)

	var args *value
	if inv.listArgs != nil {
		args = rt.buildArgList(inv.listArgs, ctx, false)
	} else {
		args = rt.evalHashLiteral(inv.hashArgs, ctx)
	}

	result := rt.callFunction(fn, args, ctx)
	rt.release(args)
	rt.heap.removeRoot(fn)
	rt.release(fn)
	return result
}

// buildArgList evaluates a syntactic argument list left-to-right into a
// list of descriptor hashes. A `name: expr` element contributes name
// and value members; in declaration mode a bare reference contributes
// its name only (the name of a parameter without a default), while any
// other element contributes just its evaluated value.
func (rt *Runtime) buildArgList(listLit *expression, ctx *value, declaring bool) *value {
	args := rt.newList()
	rt.heap.addRoot(args)
	for _, e := range listLit.list {
		d := rt.newHash()
		rt.listAppend(args, d)
		rt.release(d)

		switch {
		case e.kind == propSetExpr && e.set.ref.site == nil:
			name := rt.newString(e.set.ref.name)
			rt.hashPut(d, rt.keyName, name)
			rt.release(name)
			val := rt.eval(e.set.value, ctx)
			rt.hashPut(d, rt.keyValue, val)
			rt.release(val)

		case declaring && e.kind == propRefExpr && e.ref.site == nil:
			name := rt.newString(e.ref.name)
			rt.hashPut(d, rt.keyName, name)
			rt.release(name)

		default:
			val := rt.eval(e, ctx)
			rt.hashPut(d, rt.keyValue, val)
			rt.release(val)
		}
	}
	rt.heap.removeRoot(args)
	return args
}

// argName returns a descriptor's name member, if any.
func (rt *Runtime) argName(d *value) *intern.Str {
	if name := d.hashGetLocal(rt.keyName); name != nil && name.kind == stringVal {
		return name.str
	}
	return nil
}

// argValue returns a descriptor's value member.
func (rt *Runtime) argValue(d *value) *value {
	if d != nil && d.kind == hashVal {
		return d.hashGetLocal(rt.keyValue)
	}
	return d
}

// callFunction applies fn to an already evaluated argument list (or
// argument hash). Natives receive the raw arguments; user functions go
// through descriptor coalescing.
func (rt *Runtime) callFunction(fn, args *value, ctx *value) *value {
	if args != nil {
		rt.heap.addRoot(args)
		defer rt.heap.removeRoot(args)
	}

	if fn == nil {
		rt.halt(typeErrorf("call", "cannot invoke a null value"))
	}
	if fn.kind == nativeVal {
		return fn.native(rt, rt.getSelf(fn), args)
	}
	if !rt.isCallable(fn) {
		rt.halt(typeErrorf("call", "cannot invoke a %v value", fn.kind))
	}
	return rt.callUser(fn, args, ctx)
}

// callNamed resolves name against site and invokes it; used to re-enter
// the method dispatch protocol for to_string calls (io.print and the
// interactive result display).
func (rt *Runtime) callNamed(name *intern.Str, site, args *value, ctx *value) *value {
	fn := rt.hashGet(site, name)
	if fn == nil {
		rt.halt(lookupError{name: name.String(), kind: site.kind})
	}
	rt.retain(fn)
	rt.heap.addRoot(fn)
	result := rt.callFunction(fn, args, ctx)
	rt.heap.removeRoot(fn)
	rt.release(fn)
	return result
}

// callUser evaluates a user-defined function body in a fresh
// environment chained to the closure's captured context, populated by
// coalescing the caller's arguments with the declaration's defaults.
func (rt *Runtime) callUser(fn, args *value, ctx *value) *value {
	body, _ := rt.hashLookup(fn, rt.keyExpr)
	defaults, _ := rt.hashLookup(fn, rt.keyArgs)
	if body == nil || body.kind != deferredVal {
		rt.halt(typeErrorf("call", "function body is not a deferred expression"))
	}

	fnCtx := rt.newHashChild(body.deferred.ctx)
	rt.heap.addRoot(fnCtx)

	rt.coalesceArgs(fnCtx, args, defaults)
	if self := rt.getSelf(fn); self != nil {
		rt.hashPut(fnCtx, rt.keySelf, self)
	}

	result := rt.evalBody(body, fnCtx)
	rt.heap.removeRoot(fnCtx)
	rt.release(fnCtx)
	return result
}

// coalesceArgs merges caller arguments with declaration defaults into
// env: named arguments bind directly, unnamed ones fill the remaining
// declared parameters first-in first-out, and defaults cover the rest.
// A parameter with neither a binding nor a default is an arity error.
func (rt *Runtime) coalesceArgs(env, args, defaults *value) {
	var unnamed []*value

	if args != nil && args.kind == hashVal {
		rt.hashPutAll(env, args)
	} else if args != nil {
		for _, d := range args.list {
			if name := rt.argName(d); name != nil {
				rt.hashPut(env, name, rt.argValue(d))
			} else {
				unnamed = append(unnamed, rt.argValue(d))
			}
		}
	}

	if defaults == nil || defaults.kind != listVal {
		return
	}
	for _, d := range defaults.list {
		name := rt.argName(d)
		if name == nil {
			continue
		}
		if env.hashGetLocal(name) != nil {
			continue
		}
		if len(unnamed) > 0 {
			rt.hashPut(env, name, unnamed[0])
			unnamed = unnamed[1:]
			continue
		}
		if def := d.hashGetLocal(rt.keyValue); def != nil {
			rt.hashPut(env, name, def)
			continue
		}
		rt.halt(arityError{name: name.String()})
	}
}

// evalBody runs a deferred value: a captured list literal evaluates as
// an expression sequence (last result wins), anything else evaluates
// directly.
func (rt *Runtime) evalBody(body *value, ctx *value) *value {
	if e := body.deferred.expr; e.kind == listLitExpr || e.kind == exprListExpr {
		return rt.evalSeq(e.list, ctx)
	}
	return rt.eval(body.deferred.expr, ctx)
}

// undefer evaluates v if it is a deferred expression; other values pass
// through. Either way the result is an owned handle.
func (rt *Runtime) undefer(v *value) *value {
	if v != nil && v.kind == deferredVal {
		return rt.evalBody(v, v.deferred.ctx)
	}
	return rt.retain(v)
}

type lookupError struct {
	name string
	kind valKind
}

func (err lookupError) Error() string {
	return fmt.Sprintf("undefined property %q of %v value", err.name, err.kind)
}

type siteError struct {
	kind valKind
	name string
}

func (err siteError) Error() string {
	return fmt.Sprintf("cannot set property %q on a %v value", err.name, err.kind)
}

type arityError struct{ name string }

func (err arityError) Error() string {
	return fmt.Sprintf("missing argument %q: no binding and no default", err.name)
}

type typeError struct {
	op   string
	mess string
}

func typeErrorf(op, mess string, args ...interface{}) typeError {
	return typeError{op: op, mess: fmt.Sprintf(mess, args...)}
}

func (err typeError) Error() string {
	return fmt.Sprintf("%v: %v", err.op, err.mess)
}
