package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcorbin/gofolly/internal/chario"
	"github.com/jcorbin/gofolly/internal/panicerr"
	"github.com/stretchr/testify/assert"
)

type follyTestCases []follyTestCase

func (fts follyTestCases) run(t *testing.T) {
	for _, ft := range fts {
		if !t.Run(ft.name, ft.run) {
			return
		}
	}
}

func follyTest(name string) (ft follyTestCase) {
	ft.name = name
	return ft
}

type follyTestCase struct {
	name    string
	source  string
	opts    []Option
	expect  []func(t *testing.T, out, result string)
	wantErr string
}

func (ft follyTestCase) withSource(source string) follyTestCase {
	ft.source = source
	return ft
}

func (ft follyTestCase) withOptions(opts ...Option) follyTestCase {
	ft.opts = append(ft.opts, opts...)
	return ft
}

func (ft follyTestCase) expectOutput(want string) follyTestCase {
	ft.expect = append(ft.expect, func(t *testing.T, out, result string) {
		assert.Equal(t, want, out, "expected output")
	})
	return ft
}

func (ft follyTestCase) expectResult(want string) follyTestCase {
	ft.expect = append(ft.expect, func(t *testing.T, out, result string) {
		assert.Equal(t, want, result, "expected final result")
	})
	return ft
}

func (ft follyTestCase) expectError(substr string) follyTestCase {
	ft.wantErr = substr
	return ft
}

func (ft follyTestCase) run(t *testing.T) {
	var out strings.Builder
	opts := []Option{WithOutput(&out)}
	if testing.Verbose() {
		opts = append(opts, WithLogf(t.Logf))
	}
	opts = append(opts, ft.opts...)
	rt := New(opts...)

	result, err := evalSource(rt, ft.source)
	if ft.wantErr != "" {
		if assert.Error(t, err, "expected a fatal error") {
			assert.Contains(t, err.Error(), ft.wantErr, "expected error detail")
		}
		return
	}
	if !assert.NoError(t, err, "unexpected runtime error") {
		return
	}
	for _, expect := range ft.expect {
		expect(t, out.String(), result)
	}
}

// evalSource parses and evaluates a program against the top-level
// environment, rendering the final expression's value through the
// to_string protocol.
func evalSource(rt *Runtime, source string) (resultStr string, _ error) {
	err := panicerr.Recover("folly", func() error {
		src := chario.NewReaderSource("<test>", strings.NewReader(source))
		p := rt.newParser(newLexer(src))
		prog := p.parseProgram()
		result := rt.eval(prog, rt.topLevel)
		if result != nil {
			rt.heap.addRoot(result)
			resultStr = rt.callToString(result)
			rt.heap.removeRoot(result)
			rt.release(result)
		}
		rt.releaseExpr(prog)
		return nil
	})
	var he haltError
	if errors.As(err, &he) {
		err = he.error
	}
	return resultStr, err
}

func TestScenarios(t *testing.T) {
	follyTestCases{
		follyTest("print").
			withSource(`io.print(1, 2, 3)`).
			expectOutput("1 2 3\n"),

		follyTest("user function").
			withSource(`add: (x, y) -> (+(x, y)), io.print(add(2, 40))`).
			expectOutput("42\n"),

		follyTest("extend and method call").
			withSource(`p: Object.extend({greet: (name) -> (io.print("hi", name))}), p.greet("world")`).
			expectOutput("hi world\n"),

		follyTest("while").
			withSource("x: 0, while(`(<(x, 3)), `(x: +(x, 1))), io.print(x)").
			expectOutput("3\n"),

		follyTest("cond").
			withSource(`cond((=(1, 2), "a"), (=(1, 1), "b"), (true, "c"))`).
			expectResult("b"),

		follyTest("foreach order").
			withSource(`l: (1, 2, 3), List.foreach(l, (v) -> (io.print(v)))`).
			expectOutput("1\n2\n3\n"),
	}.run(t)
}

func TestBoundaries(t *testing.T) {
	follyTestCases{
		follyTest("empty program").
			withSource(``).
			expectOutput("").
			expectResult(""),

		follyTest("empty list").
			withSource(`()`).
			expectResult("()"),

		follyTest("hash duplicate key").
			withSource(`{a: 1, a: 2}`).
			expectResult("{a: 2}"),

		follyTest("while result").
			withSource("x: 0, while(`(<(x, 3)), `(x: +(x, 1))), x").
			expectResult("3"),

		follyTest("cond no match").
			withSource(`cond((=(1, 2), "a"))`).
			expectResult(""),

		follyTest("cond single entry pair").
			withSource(`cond((0), (7))`).
			expectResult("7"),

		follyTest("cond undefers its match").
			withSource("cond((1, `(+(1, 2))))").
			expectResult("3"),
	}.run(t)
}

func TestInvocationProtocol(t *testing.T) {
	follyTestCases{
		follyTest("positional fill").
			withSource(`f: (x, y) -> (+(x, y)), f(1, 2)`).
			expectResult("3"),

		follyTest("default fill").
			withSource(`f: (x, y: 10) -> (+(x, y)), f(1)`).
			expectResult("11"),

		follyTest("named override").
			withSource(`f: (x, y: 10) -> (+(x, y)), f(y: 5, x: 2)`).
			expectResult("7"),

		follyTest("named beats positional order").
			withSource(`f: (x, y) -> (x), f(y: 1, 9)`).
			expectResult("9"),

		follyTest("self binding").
			withSource(`p: Object.extend({v: 40, get: () -> (self.v)}), p.get()`).
			expectResult("40"),

		follyTest("closure capture").
			withSource(`n: 2, f: (x) -> (+(x, n)), f(5)`).
			expectResult("7"),

		follyTest("fn builtin").
			withSource("g: fn((), `(42)), g()").
			expectResult("42"),

		follyTest("arity error").
			withSource(`f: (x) -> (x), f()`).
			expectError("missing argument"),
	}.run(t)
}

func TestBuiltins(t *testing.T) {
	follyTestCases{
		follyTest("arithmetic").
			withSource(`(+(1, 2, 3), -(10, 3, 2), -(5))`).
			expectResult("(6, 5, -5)"),

		follyTest("comparisons").
			withSource(`(=(1, 1), =(1, 2), =("a", "a"), <(1, 2), >(1, 2))`).
			expectResult("(true, false, true, true, false)"),

		follyTest("logic").
			withSource(`(and(1, 1), and(1, 0), or(0, 1), or(0, 0), not(0), not(3), xor(1, 0), xor(1, 1))`).
			expectResult("(1, 0, 1, 0, 1, 0, 1, 0)"),

		follyTest("logic undefers").
			withSource("x: 0, (and(`(x), 1), or(`(x), 0))").
			expectResult("(0, 0)"),

		follyTest("string concat").
			withSource(`s: "foo", s.concat("bar", "!")`).
			expectResult("foobar!"),

		follyTest("to_string dispatch").
			withSource(`b: true, b.to_string()`).
			expectResult("true"),

		follyTest("number to_string").
			withSource(`n: 42, n.to_string()`).
			expectResult("42"),

		follyTest("clone shares members").
			withSource(`p: Object.extend({v: 1}), q: p.clone(), q.v`).
			expectResult("1"),

		follyTest("extend does not copy parent").
			withSource(`p: Object.extend({v: 1}), c: p.extend({w: 2}), (c.v, c.w)`).
			expectResult("(1, 2)"),

		follyTest("list push pop").
			withSource(`l: List.clone(), l.push(1), l.push(2), (l.pop(), l.pop(), l.pop())`).
			expectResult("(2, 1, false)"),
	}.run(t)
}

func TestFatalErrors(t *testing.T) {
	follyTestCases{
		follyTest("undefined property").
			withSource(`nope`).
			expectError("undefined property"),

		follyTest("set on non-hash").
			withSource(`x: 5, x.y: 1`).
			expectError("cannot set property"),

		follyTest("set on list").
			withSource(`l: (1, 2, 3), l.y: 1`).
			expectError("cannot set property"),

		follyTest("argument type mismatch").
			withSource(`+(1, "a")`).
			expectError("expected a number"),

		follyTest("invoking a non-callable").
			withSource(`x: 1, x(2)`).
			expectError("cannot invoke"),

		follyTest("while wants deferred args").
			withSource(`while(1, 2)`).
			expectError("expected a deferred expression"),

		follyTest("load of unreadable file").
			withSource(`sys.load("no/such/file.folly")`).
			expectError("load"),
	}.run(t)
}

func TestSysLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.folly")
	if !assert.NoError(t, os.WriteFile(path, []byte("answer: 42\nanswer_fn: () -> (answer)\n"), 0644)) {
		return
	}

	rt := New()
	result, err := evalSource(rt, `sys.load("`+path+`"), answer_fn()`)
	assert.NoError(t, err)
	assert.Equal(t, "42", result, "loaded definitions splice into the top level")
	assert.Len(t, rt.modules, 1, "the module AST is retained by the runtime")
}

func TestFileModule(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lines.txt")
	if !assert.NoError(t, os.WriteFile(path, []byte("line one\nline two\n"), 0644)) {
		return
	}

	follyTest("read lines").
		withSource(`f: File.clone(), f.path: "` + path + `", f.open("r"),
			io.print(f.read_line()), io.print(f.read_line()), (f.eof(), f.close())`).
		expectOutput("line one\nline two\n").
		run(t)
}

func TestEachPairShadowing(t *testing.T) {
	rt := New()

	vkey := internKey("v")
	defer vkey.Release()
	okey := internKey("only_parent")
	defer okey.Release()

	parent := rt.newHash()
	rt.heap.addRoot(parent)
	defer rt.heap.removeRoot(parent)
	one := rt.newNumber(1)
	rt.hashPut(parent, vkey, one)
	rt.release(one)
	ten := rt.newNumber(10)
	rt.hashPut(parent, okey, ten)
	rt.release(ten)

	child := rt.newHashChild(parent)
	rt.heap.addRoot(child)
	defer rt.heap.removeRoot(child)
	two := rt.newNumber(2)
	rt.hashPut(child, vkey, two)
	rt.release(two)

	got := map[string]string{}
	rec := rt.newNative(func(rt *Runtime, self, args *value) *value {
		k := rt.argValue(args.list[0])
		v := rt.argValue(args.list[1])
		got[k.str.String()] = rt.valueString(v)
		return nil
	})
	rt.heap.addRoot(rec)
	defer rt.heap.removeRoot(rec)

	arglist := rt.newList()
	rt.heap.addRoot(arglist)
	defer rt.heap.removeRoot(arglist)
	d := rt.newHash()
	rt.listAppend(arglist, d)
	rt.release(d)
	rt.hashPut(d, rt.keyValue, rec)

	result := nativeEachPair(rt, child, arglist)
	rt.release(result)

	assert.Equal(t, "2", got["v"], "a descendant's member shadows its ancestors'")
	assert.Equal(t, "10", got["only_parent"], "unshadowed ancestor members are yielded")
	_, hasParent := got["__parent__"]
	assert.False(t, hasParent, "prototype links are not yielded")
}

func TestExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.folly"))
	if !assert.NoError(t, err) || !assert.NotEmpty(t, paths) {
		return
	}
	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			expect, err := os.ReadFile(strings.TrimSuffix(path, ".folly") + ".expect")
			if !assert.NoError(t, err) {
				return
			}
			var out strings.Builder
			rt := New(WithFile(path), WithOutput(&out))
			defer rt.Close()
			if assert.NoError(t, rt.Run(context.Background())) {
				assert.Equal(t, string(expect), out.String())
			}
		})
	}
}

func TestInteractive(t *testing.T) {
	var out, prompts strings.Builder
	rt := New(
		WithInteractive(strings.NewReader("io.print(1)\n+(1, 2)\n"), &prompts),
		WithOutput(&out),
	)
	assert.NoError(t, rt.Run(context.Background()))
	assert.Equal(t, "1\n3\n", out.String(), "each entered expression's result is printed")
	assert.Contains(t, prompts.String(), "> ")
}

func TestRunEmptyInput(t *testing.T) {
	var out strings.Builder
	rt := New(WithInput("<empty>", strings.NewReader("")), WithOutput(&out))
	assert.NoError(t, rt.Run(context.Background()))
	assert.Equal(t, "", out.String(), "empty program, no output, success")
}
