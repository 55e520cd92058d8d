package main

import (
	"strings"

	"github.com/jcorbin/gofolly/internal/intern"
)

// nativeSpec binds a native function under a dotted path in the
// top-level environment; intermediate hashes are created on demand.
type nativeSpec struct {
	path string
	fn   nativeFunc
}

var nativeSpecs = []nativeSpec{
	{"Object.extend", nativeExtend},
	{"Object.clone", nativeClone},
	{"Object.to_string", nativeObjectToString},
	{"Object.eachpair", nativeEachPair},
	{"String.to_string", nativeStringToString},
	{"String.concat", nativeStringConcat},
	{"Number.to_string", nativeNumberToString},
	{"Boolean.to_string", nativeBooleanToString},
	{"List.clone", nativeListClone},
	{"List.push", nativeListPush},
	{"List.pop", nativeListPop},
	{"List.foreach", nativeListForeach},
	{"File.clone", nativeFileClone},
	{"File.open", nativeFileOpen},
	{"File.close", nativeFileClose},
	{"File.eof", nativeFileEOF},
	{"File.read_line", nativeFileReadLine},
	{"io.print", nativePrint},
	{"sys.load", nativeLoad},
	{"+", nativeAdd},
	{"-", nativeSub},
	{"=", nativeEquals},
	{"<", nativeLess},
	{">", nativeGreater},
	{"fn", nativeFn},
	{"cond", nativeCond},
	{"while", nativeWhile},
	{"and", nativeAnd},
	{"or", nativeOr},
	{"not", nativeNot},
	{"xor", nativeXor},
}

// registerBuiltins populates the top-level environment: the well-known
// prototypes first, so value creation can chain to them, then every
// native function, bound to its enclosing hash.
func (rt *Runtime) registerBuiltins() {
	rt.protoString = rt.registerProto("String")
	rt.protoNumber = rt.registerProto("Number")
	rt.protoBoolean = rt.registerProto("Boolean")
	rt.protoList = rt.registerProto("List")
	rt.protoFile = rt.registerProto("File")

	rt.trueVal = rt.newBoolean(true)
	rt.registerValue("true", rt.trueVal)
	rt.release(rt.trueVal)
	rt.falseVal = rt.newBoolean(false)
	rt.registerValue("false", rt.falseVal)
	rt.release(rt.falseVal)

	for _, spec := range nativeSpecs {
		fn := rt.newNative(spec.fn)
		rt.registerValue(spec.path, fn)
		rt.release(fn)
	}
}

func (rt *Runtime) registerProto(name string) *value {
	proto := rt.newHash()
	rt.registerValue(name, proto)
	rt.release(proto)
	return proto
}

// registerValue installs value at a dotted path under the top-level
// environment, creating intermediate hashes on demand and binding
// callables to the hash that ends up holding them.
func (rt *Runtime) registerValue(path string, val *value) {
	rt.heap.addRoot(val)
	site := rt.topLevel
	rt.heap.addRoot(site)
	for {
		seg := path
		if i := strings.IndexByte(path, '.'); i >= 0 {
			seg, path = path[:i], path[i+1:]
		} else {
			path = ""
		}
		key := intern.NewString(seg)
		if path == "" {
			rt.hashPut(site, key, val)
			if rt.isCallable(val) {
				rt.bindFunction(val, site)
			}
			key.Release()
			break
		}
		next := rt.hashGet(site, key)
		if next == nil {
			next = rt.newHash()
			rt.hashPut(site, key, next)
			rt.release(next)
		}
		key.Release()
		rt.heap.removeRoot(site)
		site = next
		rt.heap.addRoot(site)
	}
	rt.heap.removeRoot(site)
	rt.heap.removeRoot(val)
}

// argWant describes one expected native argument; anyVal admits every
// kind.
type argWant struct {
	out  **value
	kind valKind
}

const anyVal valKind = -1

func wantArg(out **value, kind valKind) argWant { return argWant{out: out, kind: kind} }

// extractArgs unpacks a raw argument list into the expected values,
// halting on a missing argument or a kind mismatch.
func (rt *Runtime) extractArgs(op string, args *value, wants ...argWant) {
	if args == nil || args.kind != listVal {
		if len(wants) == 0 {
			return
		}
		rt.halt(typeErrorf(op, "expected an argument list"))
	}
	if len(args.list) < len(wants) {
		rt.halt(typeErrorf(op, "expected %v arguments, got %v", len(wants), len(args.list)))
	}
	for i, want := range wants {
		val := rt.argValue(args.list[i])
		if want.kind != anyVal && (val == nil || val.kind != want.kind) {
			got := "null"
			if val != nil {
				got = val.kind.String()
			}
			rt.halt(typeErrorf(op, "argument %v: expected a %v value, got %v", i+1, want.kind, got))
		}
		*want.out = val
	}
}

// callToString renders a value through the method dispatch protocol.
func (rt *Runtime) callToString(v *value) string {
	if v == nil {
		return "null"
	}
	str := rt.callNamed(rt.keyToString, v, nil, rt.topLevel)
	defer rt.release(str)
	if str != nil && str.kind == stringVal {
		return str.str.String()
	}
	return rt.valueString(str)
}

func nativePrint(rt *Runtime, self, args *value) *value {
	if args == nil || args.kind != listVal {
		rt.halt(typeErrorf("io.print", "expected an argument list"))
	}
	for i, d := range args.list {
		if i > 0 {
			rt.write(" ")
		}
		rt.write(rt.callToString(rt.argValue(d)))
	}
	rt.write("\n")
	return nil
}

func nativeAdd(rt *Runtime, self, args *value) *value {
	sum := 0
	rt.eachNumberArg("+", args, func(n int) { sum += n })
	return rt.newNumber(sum)
}

func nativeSub(rt *Runtime, self, args *value) *value {
	var acc int
	rt.eachNumberArgIndexed("-", args, func(i, n int) {
		if i == 0 {
			acc = n
		} else {
			acc -= n
		}
	})
	if args != nil && len(args.list) == 1 {
		acc = -acc
	}
	return rt.newNumber(acc)
}

func (rt *Runtime) eachNumberArg(op string, args *value, fn func(n int)) {
	rt.eachNumberArgIndexed(op, args, func(_, n int) { fn(n) })
}

func (rt *Runtime) eachNumberArgIndexed(op string, args *value, fn func(i, n int)) {
	if args == nil || args.kind != listVal {
		rt.halt(typeErrorf(op, "expected an argument list"))
	}
	for i, d := range args.list {
		val := rt.argValue(d)
		if val == nil || val.kind != numberVal {
			rt.halt(typeErrorf(op, "argument %v: expected a number value", i+1))
		}
		fn(i, val.number)
	}
}

func nativeEquals(rt *Runtime, self, args *value) *value {
	var a, b *value
	rt.extractArgs("=", args, wantArg(&a, anyVal), wantArg(&b, anyVal))
	return rt.newBoolean(rt.valuesEqual(a, b))
}

func (rt *Runtime) valuesEqual(a, b *value) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.kind != b.kind {
		return false
	}
	switch a.kind {
	case numberVal:
		return a.number == b.number
	case stringVal:
		return intern.Equal(a.str, b.str)
	case booleanVal:
		return a.boolean == b.boolean
	}
	return false
}

func nativeLess(rt *Runtime, self, args *value) *value {
	var a, b *value
	rt.extractArgs("<", args, wantArg(&a, numberVal), wantArg(&b, numberVal))
	return rt.newBoolean(a.number < b.number)
}

func nativeGreater(rt *Runtime, self, args *value) *value {
	var a, b *value
	rt.extractArgs(">", args, wantArg(&a, numberVal), wantArg(&b, numberVal))
	return rt.newBoolean(a.number > b.number)
}

// nativeFn assembles a function value from an argument descriptor list
// and a deferred body.
func nativeFn(rt *Runtime, self, args *value) *value {
	var decl, body *value
	rt.extractArgs("fn", args, wantArg(&decl, listVal), wantArg(&body, deferredVal))
	fn := rt.newHash()
	rt.heap.addRoot(fn)
	rt.hashPut(fn, rt.keyArgs, decl)
	rt.hashPut(fn, rt.keyExpr, body)
	rt.heap.removeRoot(fn)
	return fn
}

// nativeCond walks its pairs in order, returning the undeferred second
// element of the first pair whose first element is truthy (or that
// element itself for a one-entry pair). No match yields null.
func nativeCond(rt *Runtime, self, args *value) *value {
	if args == nil || args.kind != listVal {
		rt.halt(typeErrorf("cond", "expected an argument list"))
	}
	for i, d := range args.list {
		pair := rt.argValue(d)
		if pair == nil || pair.kind != listVal {
			rt.halt(typeErrorf("cond", "argument %v: expected a pair list", i+1))
		}
		if len(pair.list) == 0 {
			continue
		}
		c := rt.undefer(pair.list[0])
		if rt.isTrue(c) {
			if len(pair.list) > 1 {
				rt.release(c)
				return rt.undefer(pair.list[1])
			}
			return c
		}
		rt.release(c)
	}
	return nil
}

// nativeWhile loops a deferred body while a deferred test stays truthy;
// the last body result is the overall result.
func nativeWhile(rt *Runtime, self, args *value) *value {
	var test, body *value
	rt.extractArgs("while", args, wantArg(&test, deferredVal), wantArg(&body, deferredVal))

	var result *value
	for {
		rt.checkCtx()
		c := rt.undefer(test)
		t := rt.isTrue(c)
		rt.release(c)
		if !t {
			break
		}
		if result != nil {
			rt.heap.removeRoot(result)
			rt.release(result)
		}
		result = rt.undefer(body)
		if result != nil {
			rt.heap.addRoot(result)
		}
	}
	if result != nil {
		rt.heap.removeRoot(result)
	}
	return result
}

func nativeAnd(rt *Runtime, self, args *value) *value {
	for _, d := range rt.logicArgs("and", args) {
		v := rt.undefer(rt.argValue(d))
		t := rt.isTrue(v)
		rt.release(v)
		if !t {
			return rt.newNumber(0)
		}
	}
	return rt.newNumber(1)
}

func nativeOr(rt *Runtime, self, args *value) *value {
	for _, d := range rt.logicArgs("or", args) {
		v := rt.undefer(rt.argValue(d))
		t := rt.isTrue(v)
		rt.release(v)
		if t {
			return rt.newNumber(1)
		}
	}
	return rt.newNumber(0)
}

func nativeNot(rt *Runtime, self, args *value) *value {
	var v *value
	rt.extractArgs("not", args, wantArg(&v, anyVal))
	u := rt.undefer(v)
	t := rt.isTrue(u)
	rt.release(u)
	return rt.newNumber(boolInt(!t))
}

func nativeXor(rt *Runtime, self, args *value) *value {
	var a, b *value
	rt.extractArgs("xor", args, wantArg(&a, anyVal), wantArg(&b, anyVal))
	ua := rt.undefer(a)
	ta := rt.isTrue(ua)
	rt.release(ua)
	ub := rt.undefer(b)
	tb := rt.isTrue(ub)
	rt.release(ub)
	return rt.newNumber(boolInt(ta != tb))
}

func (rt *Runtime) logicArgs(op string, args *value) []*value {
	if args == nil || args.kind != listVal {
		rt.halt(typeErrorf(op, "expected an argument list"))
	}
	return args.list
}

// nativeExtend creates a child of the receiver populated from the
// argument hash, skipping the prototype link.
func nativeExtend(rt *Runtime, self, args *value) *value {
	src := args
	if args != nil && args.kind == listVal {
		if len(args.list) != 1 {
			rt.halt(typeErrorf("Object.extend", "expected a member hash"))
		}
		src = rt.argValue(args.list[0])
	}
	if src == nil || src.kind != hashVal {
		rt.halt(typeErrorf("Object.extend", "expected a member hash"))
	}
	sub := rt.newHashChild(self)
	rt.heap.addRoot(sub)
	rt.hashPutAll(sub, src)
	rt.heap.removeRoot(sub)
	return sub
}

func nativeClone(rt *Runtime, self, args *value) *value {
	return rt.cloneValue(self)
}

func nativeObjectToString(rt *Runtime, self, args *value) *value {
	return rt.newStringOf(rt.valueString(self))
}

func nativeStringToString(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != stringVal {
		rt.halt(typeErrorf("String.to_string", "receiver is not a string"))
	}
	return rt.retain(self)
}

func nativeStringConcat(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != stringVal {
		rt.halt(typeErrorf("String.concat", "receiver is not a string"))
	}
	var sb strings.Builder
	sb.Write(self.str.Bytes())
	if args != nil && args.kind == listVal {
		for i, d := range args.list {
			val := rt.argValue(d)
			if val == nil || val.kind != stringVal {
				rt.halt(typeErrorf("String.concat", "argument %v: expected a string value", i+1))
			}
			sb.Write(val.str.Bytes())
		}
	}
	return rt.newStringOf(sb.String())
}

func nativeNumberToString(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != numberVal {
		rt.halt(typeErrorf("Number.to_string", "receiver is not a number"))
	}
	return rt.newStringOf(rt.valueString(self))
}

func nativeBooleanToString(rt *Runtime, self, args *value) *value {
	if self == nil || self.kind != booleanVal {
		rt.halt(typeErrorf("Boolean.to_string", "receiver is not a boolean"))
	}
	return rt.newStringOf(rt.valueString(self))
}

// nativeLoad splices another file's top-level expressions into the
// current top-level environment.
func nativeLoad(rt *Runtime, self, args *value) *value {
	var path *value
	rt.extractArgs("sys.load", args, wantArg(&path, stringVal))
	rt.loadPath(path.str.String())
	return rt.newBoolean(true)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
