package main

import (
	"fmt"
	"io"

	"github.com/jcorbin/gofolly/internal/chario"
	"github.com/jcorbin/gofolly/internal/intern"
)

type tokenKind int

const (
	eofTok tokenKind = iota
	identTok
	numberTok
	stringTok
	assignTok    // :
	listStartTok // (
	listEndTok   // )
	hashStartTok // {
	hashEndTok   // }
	delimTok     // ,
	quoteTok     // `
	derefTok     // .
	arrowTok     // ->
)

var tokenKindNames = [...]string{
	"end of input",
	"identifier",
	"number",
	"string",
	"`:`",
	"`(`",
	"`)`",
	"`{`",
	"`}`",
	"`,`",
	"quote",
	"`.`",
	"`->`",
}

func (k tokenKind) String() string {
	if int(k) < len(tokenKindNames) {
		return tokenKindNames[k]
	}
	return fmt.Sprintf("token(%d)", int(k))
}

type token struct {
	kind tokenKind
	str  *intern.Str // identifier and string payloads
	num  int
	loc  chario.Location
}

func (t token) String() string {
	switch t.kind {
	case identTok:
		return fmt.Sprintf("identifier %q", t.str.String())
	case numberTok:
		return fmt.Sprintf("number %v", t.num)
	case stringTok:
		return fmt.Sprintf("string %q", t.str.String())
	}
	return t.kind.String()
}

// lexRule pairs a byte predicate with a token reader; a rule with no
// reader consumes its byte silently.
type lexRule struct {
	match func(b byte) bool
	read  func(lx *lexer, b byte) token
}

// lexer produces tokens from a character source by matching each input
// byte against a fixed rule table. One token of lookahead is
// materialised lazily through current and held until consumed.
type lexer struct {
	src     chario.Source
	pending token
	havePk  bool
}

func newLexer(src chario.Source) *lexer {
	return &lexer{src: src}
}

func is(c byte) func(b byte) bool {
	return func(b byte) bool { return b == c }
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isQuoteDelim(b byte) bool { return b == '\'' || b == '"' }

// isSigil reports bytes that delimit identifiers: the single-byte
// tokens, string delimiters, and `-` (which opens the arrow form and
// names the subtraction built-in on its own).
func isSigil(b byte) bool {
	switch b {
	case ':', '(', ')', '{', '}', ',', '`', '.', '-', '\'', '"':
		return true
	}
	return false
}

func isIdentByte(b byte) bool {
	return b > ' ' && b < 0x7f && !isSigil(b)
}

func isIdentStart(b byte) bool {
	return isIdentByte(b) && !isDigit(b)
}

func simpleRule(c byte, kind tokenKind) lexRule {
	return lexRule{is(c), func(lx *lexer, b byte) token {
		return token{kind: kind}
	}}
}

var lexRules = []lexRule{
	{isWhitespace, nil},
	simpleRule(':', assignTok),
	simpleRule('(', listStartTok),
	simpleRule(')', listEndTok),
	simpleRule('{', hashStartTok),
	simpleRule('}', hashEndTok),
	simpleRule(',', delimTok),
	simpleRule('`', quoteTok),
	simpleRule('.', derefTok),
	{is('-'), (*lexer).readArrow},
	{isDigit, (*lexer).readNumber},
	{isQuoteDelim, (*lexer).readString},
	{isIdentStart, (*lexer).readIdentifier},
}

// current returns the next token without consuming it.
func (lx *lexer) current() token {
	if !lx.havePk {
		lx.pending = lx.scan()
		lx.havePk = true
	}
	return lx.pending
}

// advance consumes the current token and returns it.
func (lx *lexer) advance() token {
	t := lx.current()
	lx.havePk = false
	return t
}

// expect consumes the current token, requiring it to be of kind.
func (lx *lexer) expect(kind tokenKind) token {
	t := lx.advance()
	if t.kind != kind {
		panic(haltError{parseError{got: t, want: kind.String()}})
	}
	return t
}

func (lx *lexer) scan() token {
	for {
		loc := lx.src.Loc()
		b, err := lx.src.ReadByte()
		if err == io.EOF {
			return token{kind: eofTok, loc: loc}
		} else if err != nil {
			panic(haltError{err})
		}

		for _, rule := range lexRules {
			if !rule.match(b) {
				continue
			}
			if rule.read == nil {
				break
			}
			t := rule.read(lx, b)
			t.loc = loc
			return t
		}
		if !isWhitespace(b) {
			panic(haltError{lexError{b: b, loc: loc}})
		}
	}
}

func (lx *lexer) readByte() (byte, bool) {
	b, err := lx.src.ReadByte()
	if err == io.EOF {
		return 0, false
	} else if err != nil {
		panic(haltError{err})
	}
	return b, true
}

func (lx *lexer) unread(b byte) {
	if err := lx.src.UnreadByte(b); err != nil {
		panic(haltError{err})
	}
}

// readArrow resolves `-`: followed by `>` it is the function
// declaration arrow, otherwise it stands alone as an identifier.
func (lx *lexer) readArrow(b byte) token {
	if next, ok := lx.readByte(); ok {
		if next == '>' {
			return token{kind: arrowTok}
		}
		lx.unread(next)
	}
	return token{kind: identTok, str: intern.NewString("-")}
}

// readNumber reads an unsigned decimal integer; negation is a built-in.
func (lx *lexer) readNumber(b byte) token {
	n := int(b - '0')
	for {
		c, ok := lx.readByte()
		if !ok {
			break
		}
		if !isDigit(c) {
			lx.unread(c)
			break
		}
		n = n*10 + int(c-'0')
	}
	return token{kind: numberTok, num: n}
}

// readString reads a quoted literal; the closing delimiter must match
// the opening one, and `\` escapes the byte that follows it.
func (lx *lexer) readString(delim byte) token {
	var buf []byte
	for {
		c, ok := lx.readByte()
		if !ok {
			panic(haltError{parseError{got: token{kind: eofTok, loc: lx.src.Loc()}, want: "closing string delimiter"}})
		}
		if c == delim {
			break
		}
		if c == '\\' {
			if c, ok = lx.readByte(); !ok {
				continue
			}
		}
		buf = append(buf, c)
	}
	return token{kind: stringTok, str: intern.New(buf)}
}

// readIdentifier greedily consumes bytes until whitespace or a sigil.
func (lx *lexer) readIdentifier(b byte) token {
	buf := []byte{b}
	for {
		c, ok := lx.readByte()
		if !ok {
			break
		}
		if !isIdentByte(c) && !isDigit(c) {
			lx.unread(c)
			break
		}
		buf = append(buf, c)
	}
	return token{kind: identTok, str: intern.New(buf)}
}

type lexError struct {
	b   byte
	loc chario.Location
}

func (err lexError) Error() string {
	return fmt.Sprintf("unexpected input byte %q at %v", err.b, err.loc)
}
