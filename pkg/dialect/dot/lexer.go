package dot

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL
	ID     // identifier or numeral
	STRING // double-quoted string, escapes decoded
	HTML   // <...> string, outer brackets removed
	LBRACE
	RBRACE
	LBRACK
	RBRACK
	EQ
	SEMI
	COMMA
	COLON
	EDGEOP // -> or --

	// Keywords, matched case-insensitively.
	STRICT
	GRAPH
	DIGRAPH
	NODE
	EDGE
	SUBGRAPH
)

var tokenNames = [...]string{
	EOF:      "end of input",
	ILLEGAL:  "illegal token",
	ID:       "identifier",
	STRING:   "string",
	HTML:     "HTML string",
	LBRACE:   "'{'",
	RBRACE:   "'}'",
	LBRACK:   "'['",
	RBRACK:   "']'",
	EQ:       "'='",
	SEMI:     "';'",
	COMMA:    "','",
	COLON:    "':'",
	EDGEOP:   "edge operator",
	STRICT:   "'strict'",
	GRAPH:    "'graph'",
	DIGRAPH:  "'digraph'",
	NODE:     "'node'",
	EDGE:     "'edge'",
	SUBGRAPH: "'subgraph'",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

var keywords = map[string]TokenType{
	"strict":   STRICT,
	"graph":    GRAPH,
	"digraph":  DIGRAPH,
	"node":     NODE,
	"edge":     EDGE,
	"subgraph": SUBGRAPH,
}

// Token is a lexical token with its start position.
type Token struct {
	Type TokenType
	Text string
	Err  string
	Pos  syntax.Pos
}

// IsID reports whether the token can be used as a DOT ID.
func (t Token) IsID() bool {
	return t.Type == ID || t.Type == STRING || t.Type == HTML
}

func (t Token) describe() string {
	switch t.Type {
	case ILLEGAL:
		if t.Err != "" {
			return t.Err
		}
		return fmt.Sprintf("unexpected %q", t.Text)
	case ID, STRING:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	}
	return t.Type.String()
}

// Lexer splits DOT source into tokens.
type Lexer struct {
	syntax.Scanner
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{Scanner: syntax.NewScanner(src)}
}

// Tokenize returns every token of src, ending with EOF.
func Tokenize(src string) []Token {
	l := NewLexer(src)
	var toks []Token
	for {
		t := l.Next()
		toks = append(toks, t)
		if t.Type == EOF {
			return toks
		}
	}
}

func isIDStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || r >= 0x80
}

func isIDRune(r rune) bool {
	return isIDStart(r) || unicode.IsDigit(r)
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

// Next returns the next token, skipping whitespace and comments.
func (l *Lexer) Next() Token {
	for {
		r := l.Peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r' || r == '\n':
			l.Advance()
		case r == '#' || l.HasPrefix("//"):
			l.SkipLine()
		case l.HasPrefix("/*"):
			start := l.Pos()
			l.Consume("/*")
			for !l.HasPrefix("*/") {
				if l.Advance() == syntax.EOF {
					return Token{Type: ILLEGAL, Text: "/*", Err: "unterminated comment", Pos: start}
				}
			}
			l.Consume("*/")
		default:
			return l.scan()
		}
	}
}

var punct = map[rune]TokenType{
	'{': LBRACE,
	'}': RBRACE,
	'[': LBRACK,
	']': RBRACK,
	'=': EQ,
	';': SEMI,
	',': COMMA,
	':': COLON,
}

func (l *Lexer) scan() Token {
	start := l.Pos()
	r := l.Peek()

	if r == syntax.EOF {
		return Token{Type: EOF, Pos: start}
	}
	if tt, ok := punct[r]; ok {
		l.Advance()
		return Token{Type: tt, Text: string(r), Pos: start}
	}

	switch {
	case l.HasPrefix("->") || l.HasPrefix("--"):
		op := string([]rune{l.Advance(), l.Advance()})
		return Token{Type: EDGEOP, Text: op, Pos: start}
	case r == '"':
		return l.scanString(start)
	case r == '<':
		return l.scanHTML(start)
	case isDigit(r) || ((r == '-' || r == '.') && (isDigit(l.PeekN(1)) || l.PeekN(1) == '.')):
		return l.scanNumeral(start)
	case isIDStart(r):
		var b strings.Builder
		for isIDRune(l.Peek()) {
			b.WriteRune(l.Advance())
		}
		text := b.String()
		if kw, ok := keywords[strings.ToLower(text)]; ok {
			return Token{Type: kw, Text: text, Pos: start}
		}
		return Token{Type: ID, Text: text, Pos: start}
	}

	l.Advance()
	return Token{Type: ILLEGAL, Text: string(r), Pos: start}
}

func (l *Lexer) scanNumeral(start syntax.Pos) Token {
	var b strings.Builder
	if l.Peek() == '-' {
		b.WriteRune(l.Advance())
	}
	dot := false
	for r := l.Peek(); isDigit(r) || (r == '.' && !dot); r = l.Peek() {
		if r == '.' {
			dot = true
		}
		b.WriteRune(l.Advance())
	}
	return Token{Type: ID, Text: b.String(), Pos: start}
}

// scanString reads a quoted string. \" and \\ are decoded, a backslash before
// a newline continues the line, and other escapes are kept verbatim. Strings
// joined with '+' are concatenated.
func (l *Lexer) scanString(start syntax.Pos) Token {
	var b strings.Builder
	for {
		l.Advance()
		for {
			r := l.Peek()
			if r == syntax.EOF {
				return Token{Type: ILLEGAL, Text: `"`, Err: "unterminated string", Pos: start}
			}
			l.Advance()
			if r == '"' {
				break
			}
			if r == '\\' {
				switch next := l.Peek(); next {
				case '"', '\\':
					b.WriteRune(l.Advance())
					continue
				case '\n':
					l.Advance()
					continue
				}
			}
			b.WriteRune(r)
		}

		// Look past whitespace for a '+' continuation.
		save := l.Scanner
		for r := l.Peek(); r == ' ' || r == '\t' || r == '\r' || r == '\n'; r = l.Peek() {
			l.Advance()
		}
		if l.Peek() != '+' {
			l.Scanner = save
			return Token{Type: STRING, Text: b.String(), Pos: start}
		}
		l.Advance()
		for r := l.Peek(); r == ' ' || r == '\t' || r == '\r' || r == '\n'; r = l.Peek() {
			l.Advance()
		}
		if l.Peek() != '"' {
			return Token{Type: ILLEGAL, Text: "+", Err: "expected string after '+'", Pos: start}
		}
	}
}

func (l *Lexer) scanHTML(start syntax.Pos) Token {
	l.Advance()
	depth := 1
	var b strings.Builder
	for {
		r := l.Peek()
		if r == syntax.EOF {
			return Token{Type: ILLEGAL, Text: "<", Err: "unterminated HTML string", Pos: start}
		}
		l.Advance()
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth == 0 {
				return Token{Type: HTML, Text: b.String(), Pos: start}
			}
		}
		b.WriteRune(r)
	}
}
