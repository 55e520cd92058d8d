package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/gofolly/internal/chario"
	"github.com/jcorbin/gofolly/internal/flushio"
	"github.com/jcorbin/gofolly/internal/hashtab"
	"github.com/jcorbin/gofolly/internal/intern"
)

// Runtime owns the heap, the root environment, the global prototypes,
// and the parse/evaluate machinery. A Runtime is single-threaded: all
// mutable state belongs to the one execution context driving it.
type Runtime struct {
	logging

	heap *heap

	objectRoot *value
	topLevel   *value
	primPool   *value
	modules    []*expression

	protoString  *value
	protoNumber  *value
	protoBoolean *value
	protoList    *value
	protoFile    *value
	trueVal      *value
	falseVal     *value

	keyParent   *intern.Str
	keySelf     *intern.Str
	keyArgs     *intern.Str
	keyExpr     *intern.Str
	keyName     *intern.Str
	keyValue    *intern.Str
	keyPath     *intern.Str
	keyToString *intern.Str

	out     flushio.Sink
	sources []sourceEntry
	closers []io.Closer

	chunkSize int
	heapLimit uint

	ctx context.Context
}

type sourceEntry struct {
	open        func() (chario.Source, error)
	interactive bool
}

// bootstrap builds the heap and the global object graph: the object
// root, the top-level environment (with Object installed), the
// primitive pool, and the builtin registration table.
func (rt *Runtime) bootstrap() {
	rt.heap = newHeap(rt.chunkSize)
	rt.heap.limit = rt.heapLimit
	rt.heap.destroy = rt.destroyValue
	rt.heap.mark = rt.markValue

	rt.keyParent = intern.NewString("__parent__")
	rt.keySelf = intern.NewString("self")
	rt.keyArgs = intern.NewString("__args__")
	rt.keyExpr = intern.NewString("__expr__")
	rt.keyName = intern.NewString("name")
	rt.keyValue = intern.NewString("value")
	rt.keyPath = intern.NewString("path")
	rt.keyToString = intern.NewString("to_string")

	rt.objectRoot = rt.newHash()
	rt.heap.addRoot(rt.objectRoot)

	rt.topLevel = rt.newHash()
	rt.heap.addRoot(rt.topLevel)
	rt.registerValue("Object", rt.objectRoot)

	rt.primPool = rt.newList()
	rt.heap.addRoot(rt.primPool)

	rt.registerBuiltins()
}

// Close releases any owned input and output streams.
func (rt *Runtime) Close() (err error) {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if cerr := rt.closers[i].Close(); err == nil {
			err = cerr
		}
	}
	rt.closers = nil
	return err
}

func (rt *Runtime) run(ctx context.Context) error {
	rt.ctx = ctx
	defer func() { rt.ctx = nil }()

	for _, entry := range rt.sources {
		src, err := entry.open()
		if err != nil {
			rt.halt(err)
		}
		if entry.interactive {
			rt.runInteractive(src)
		} else {
			rt.runSource(src)
		}
		src.Close()
	}
	if rt.out != nil {
		return rt.out.Flush()
	}
	return nil
}

// runSource parses a whole source to one expression-list and evaluates
// it against the top-level environment; the AST is disposed afterward
// (deferred values keep their shares of any captured subtrees).
func (rt *Runtime) runSource(src chario.Source) {
	p := rt.newParser(newLexer(src))
	prog := p.parseProgram()
	rt.logf(".", "parsed %v top-level expressions from %v", len(prog.list), src.Name())
	result := rt.eval(prog, rt.topLevel)
	rt.release(result)
	rt.releaseExpr(prog)
}

// runInteractive evaluates one complete expression at a time, printing
// each result.
func (rt *Runtime) runInteractive(src chario.Source) {
	p := rt.newParser(newLexer(src))
	for {
		rt.checkCtx()
		expr, ok := p.parseOne()
		if !ok {
			return
		}
		result := rt.eval(expr, rt.topLevel)
		if result != nil {
			rt.heap.addRoot(result)
			rt.write(rt.callToString(result))
			rt.write("\n")
			rt.heap.removeRoot(result)
			rt.release(result)
		}
		rt.releaseExpr(expr)
		if rt.out != nil {
			rt.haltif(rt.out.Flush())
		}
	}
}

// loadPath reads, parses, and evaluates the named file in the
// top-level environment. The module's AST is retained for the life of
// the runtime so deferred expressions inside it stay valid.
func (rt *Runtime) loadPath(path string) {
	src, err := chario.Open(path)
	if err != nil {
		rt.halt(fmt.Errorf("load: %w", err))
	}
	defer src.Close()

	p := rt.newParser(newLexer(src))
	prog := p.parseProgram()
	rt.modules = append(rt.modules, prog)
	rt.logf(".", "loaded %v expressions from %v", len(prog.list), path)
	result := rt.eval(prog, rt.topLevel)
	rt.release(result)
}

func (rt *Runtime) write(s string) {
	if rt.out == nil {
		return
	}
	if _, err := io.WriteString(rt.out, s); err != nil {
		rt.halt(err)
	}
}

func (rt *Runtime) checkCtx() {
	if rt.ctx != nil {
		rt.haltif(rt.ctx.Err())
	}
}

// halt reports a fatal condition and unwinds to the Run boundary.
func (rt *Runtime) halt(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if rt.out != nil {
			rt.out.Flush()
		}
	}()
	rt.logf("#", "halt error: %v", err)
	panic(haltError{err})
}

func (rt *Runtime) haltif(err error) {
	if err != nil {
		rt.halt(err)
	}
}

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err haltError) Unwrap() error { return err.error }

// markValue marks v and everything reachable from it: member values,
// list elements, and a deferred expression's captured environment
// (held directly rather than through the member map).
func (rt *Runtime) markValue(v *value) {
	if v == nil || v.kind == freeVal || v.reached {
		return
	}
	v.reached = true
	v.members.Each(func(_ *intern.Str, member *value) bool {
		rt.markValue(member)
		return true
	})
	for _, elem := range v.list {
		rt.markValue(elem)
	}
	if v.kind == deferredVal {
		rt.markValue(v.deferred.ctx)
	}
}

// destroyValue runs a value's destructor and returns its slot to the
// free list. The recursive form (refcount reaching zero) releases
// owned children; the sweep form does not, since those children may be
// reclaimed by the same sweep. Both forms drop owned primitives: the
// string payload, the member keys, a deferred value's AST share, and
// any open file handle.
func (rt *Runtime) destroyValue(v *value, recursive bool) {
	if v.kind == freeVal {
		return
	}
	kind := v.kind
	v.kind = freeVal

	if recursive {
		v.members.Drain(func(key *intern.Str, member *value) {
			key.Release()
			rt.release(member)
		})
		for _, elem := range v.list {
			rt.release(elem)
		}
	} else {
		v.members.Drain(func(key *intern.Str, member *value) {
			key.Release()
		})
	}

	if v.str != nil {
		v.str.Release()
	}
	if kind == deferredVal {
		rt.releaseExpr(v.deferred.expr)
	}
	if v.ext != nil && v.ext.f != nil {
		v.ext.f.Close()
	}
	rt.heap.reclaim(v)
}

// newMemberTable builds the member map given to every live value.
func newMemberTable() *hashtab.Table[*value] { return hashtab.New[*value]() }

// logging carries the runtime's trace hook; a nil logfn is silent.
type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
