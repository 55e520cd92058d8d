package main

import (
	"fmt"

	"github.com/jcorbin/gofolly/internal/hashtab"
)

// parser builds one expression tree per top-level form, driving a lexer
// with one token of lookahead.
type parser struct {
	rt *Runtime
	lx *lexer
}

func (rt *Runtime) newParser(lx *lexer) *parser {
	return &parser{rt: rt, lx: lx}
}

// parseProgram reads every remaining top-level expression into an
// expression-list node.
func (p *parser) parseProgram() *expression {
	prog := newExpr(exprListExpr)
	for p.skipDelims().kind != eofTok {
		prog.list = append(prog.list, p.readCompleteExpression())
	}
	return prog
}

// parseOne reads a single top-level expression, or reports end of
// input.
func (p *parser) parseOne() (*expression, bool) {
	if p.skipDelims().kind == eofTok {
		return nil, false
	}
	return p.readCompleteExpression(), true
}

// skipDelims discards delimiter padding between top-level expressions,
// returning the first token of interest. The delimiter is otherwise
// reserved: it only ever separates elements.
func (p *parser) skipDelims() token {
	for {
		t := p.lx.current()
		if t.kind != delimTok {
			return t
		}
		p.lx.advance()
	}
}

func (p *parser) readCompleteExpression() *expression {
	t := p.lx.advance()
	switch t.kind {
	case identTok:
		return p.readIdentifier(t)
	case numberTok:
		return p.readPrimitive(p.rt.newNumber(t.num))
	case stringTok:
		prim := p.rt.newString(t.str)
		t.str.Release()
		return p.readPrimitive(prim)
	case hashStartTok:
		return p.readHashBody()
	case listStartTok:
		return p.readListTail()
	case quoteTok:
		expr := newExpr(deferExpr)
		expr.deferred = p.readCompleteExpression()
		return expr
	}
	panic(haltError{parseError{got: t, want: "an expression"}})
}

// readIdentifier resolves the form starting at an identifier: an
// assignment, a dotted chain grafted onto the expression that follows,
// an invocation, or a plain property reference.
func (p *parser) readIdentifier(t token) *expression {
	ref := &propRef{name: t.str}

	switch next := p.lx.current(); next.kind {
	case assignTok:
		p.lx.advance()
		set := newExpr(propSetExpr)
		set.set = &propSet{ref: ref, value: p.readCompleteExpression()}
		return set

	case derefTok:
		p.lx.advance()
		rhs := p.readCompleteExpression()
		parent := newExpr(propRefExpr)
		parent.ref = ref
		switch rhs.kind {
		case invokeExpr:
			graftSite(rhs.inv.fn.ref, parent)
		case propRefExpr:
			graftSite(rhs.ref, parent)
		case propSetExpr:
			graftSite(rhs.set.ref, parent)
		default:
			panic(haltError{parseError{
				got:  next,
				want: fmt.Sprintf("a reference, assignment, or invocation after %q.", ref.name.String()),
			}})
		}
		return rhs

	case listStartTok, hashStartTok:
		p.lx.advance()
		fn := newExpr(propRefExpr)
		fn.ref = ref
		expr := newExpr(invokeExpr)
		expr.inv = &invocation{fn: fn}
		if next.kind == listStartTok {
			expr.inv.listArgs = p.readListTailPlain()
		} else {
			expr.inv.hashArgs = p.readHashBody()
		}
		return expr
	}

	expr := newExpr(propRefExpr)
	expr.ref = ref
	return expr
}

// graftSite installs parent as the site of the left-most reference in a
// dotted chain.
func graftSite(ref *propRef, parent *expression) {
	for ref.site != nil {
		ref = ref.site.ref
	}
	ref.site = parent
}

// readPrimitive wraps a freshly created value, parking it in the
// runtime's primitive pool so it stays reachable for the life of the
// program.
func (p *parser) readPrimitive(prim *value) *expression {
	p.rt.listAppend(p.rt.primPool, prim)
	expr := newExpr(primitiveExpr)
	expr.prim = prim
	return expr
}

// readListTail reads a list literal whose opening `(` has been
// consumed; if an arrow follows the closing `)`, the list becomes the
// argument descriptors of a function declaration whose body list
// follows.
func (p *parser) readListTail() *expression {
	list := p.readListTailPlain()
	if p.lx.current().kind != arrowTok {
		return list
	}
	p.lx.advance()
	p.lx.expect(listStartTok)
	decl := newExpr(funcDeclExpr)
	decl.fn = &funcDecl{args: list, body: p.readListTailPlain()}
	return decl
}

func (p *parser) readListTailPlain() *expression {
	list := newExpr(listLitExpr)
	for {
		switch t := p.lx.current(); t.kind {
		case listEndTok:
			p.lx.advance()
			return list
		case delimTok:
			p.lx.advance()
		case eofTok:
			panic(haltError{parseError{got: t, want: "`)` to close a list"}})
		default:
			list.list = append(list.list, p.readCompleteExpression())
		}
	}
}

// readHashBody reads `identifier : expression` pairs up to the closing
// `}`; the opening `{` has been consumed. A duplicated key keeps its
// last occurrence.
func (p *parser) readHashBody() *expression {
	expr := newExpr(hashLitExpr)
	expr.hash = hashtab.New[*expression]()
	for {
		switch t := p.lx.current(); t.kind {
		case hashEndTok:
			p.lx.advance()
			return expr
		case delimTok:
			p.lx.advance()
		case eofTok:
			panic(haltError{parseError{got: t, want: "`}` to close a hash"}})
		default:
			key := p.lx.expect(identTok)
			p.lx.expect(assignTok)
			val := p.readCompleteExpression()
			if prior, had := expr.hash.Put(key.str, val); had {
				key.str.Release()
				p.rt.releaseExpr(prior)
			}
		}
	}
}

type parseError struct {
	got  token
	want string
}

func (err parseError) Error() string {
	return fmt.Sprintf("unexpected %v at %v (expected %v)", err.got, err.got.loc, err.want)
}
