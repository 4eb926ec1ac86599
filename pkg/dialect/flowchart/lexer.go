package flowchart

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// TokenType identifies a lexical token.
type TokenType int

const (
	EOF TokenType = iota
	ILLEGAL
	NEWLINE
	SEMI
	IDENT
	SHAPE     // bracketed node label; Text is the decoded label, Open the opener
	ARROW     // link such as --> or -.->
	EDGELABEL // |label| following an arrow
	AMP       // & node group separator
	CLASSREF  // :::className
)

var tokenNames = [...]string{
	EOF:       "end of input",
	ILLEGAL:   "illegal token",
	NEWLINE:   "newline",
	SEMI:      "';'",
	IDENT:     "identifier",
	SHAPE:     "node shape",
	ARROW:     "link",
	EDGELABEL: "link label",
	AMP:       "'&'",
	CLASSREF:  "class reference",
}

func (t TokenType) String() string {
	if int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return "token(" + strconv.Itoa(int(t)) + ")"
}

// Token is a lexical token with its start position.
type Token struct {
	Type TokenType
	Text string
	Open string // shape opener, SHAPE only
	Err  string // reason, ILLEGAL only
	Pos  syntax.Pos
}

func (t Token) describe() string {
	switch t.Type {
	case ILLEGAL:
		if t.Err != "" {
			return t.Err
		}
		return fmt.Sprintf("unexpected %q", t.Text)
	case IDENT, ARROW:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	}
	return t.Type.String()
}

type shapeDef struct {
	open    string
	closers []string
	kind    diagram.Kind
}

// Longest openers first.
var shapes = []shapeDef{
	{"(((", []string{")))"}, diagram.KindTerminal},
	{"([", []string{"])"}, diagram.KindTerminal},
	{"((", []string{"))"}, diagram.KindTerminal},
	{"[[", []string{"]]"}, diagram.KindProcess},
	{"[(", []string{")]"}, diagram.KindProcess},
	{"[/", []string{"/]", `\]`}, diagram.KindProcess},
	{`[\`, []string{`\]`, "/]"}, diagram.KindProcess},
	{"{{", []string{"}}"}, diagram.KindDecision},
	{"[", []string{"]"}, diagram.KindProcess},
	{"(", []string{")"}, diagram.KindTerminal},
	{"{", []string{"}"}, diagram.KindDecision},
	{">", []string{"]"}, diagram.KindProcess},
}

// KindOf returns the node kind for a shape opener.
func KindOf(open string) diagram.Kind {
	for _, s := range shapes {
		if s.open == open {
			return s.kind
		}
	}
	return diagram.KindProcess
}

// Lexer splits flowchart source into tokens. Positions are 1-based and
// columns count runes.
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

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	for {
		r := l.Peek()
		switch {
		case r == ' ' || r == '\t' || r == '\r':
			l.Advance()
		case r == '%' && l.PeekN(1) == '%':
			l.SkipLine()
		default:
			return l.scan()
		}
	}
}

func (l *Lexer) scan() Token {
	start := l.Pos()
	r := l.Peek()
	switch {
	case r == syntax.EOF:
		return Token{Type: EOF, Pos: start}
	case r == '\n':
		l.Advance()
		return Token{Type: NEWLINE, Pos: start}
	case r == ';':
		l.Advance()
		return Token{Type: SEMI, Text: ";", Pos: start}
	case r == '&':
		l.Advance()
		return Token{Type: AMP, Text: "&", Pos: start}
	case r == '|':
		return l.scanEdgeLabel(start)
	case isIdentRune(r):
		var b strings.Builder
		for isIdentRune(l.Peek()) {
			b.WriteRune(l.Advance())
		}
		return Token{Type: IDENT, Text: b.String(), Pos: start}
	case l.HasPrefix(":::"):
		l.Consume(":::")
		var b strings.Builder
		for isIdentRune(l.Peek()) || l.Peek() == '-' {
			b.WriteRune(l.Advance())
		}
		return Token{Type: CLASSREF, Text: b.String(), Pos: start}
	}

	if t, ok := l.scanArrow(start); ok {
		return t
	}
	for _, s := range shapes {
		if l.HasPrefix(s.open) {
			return l.scanShape(start, s)
		}
	}
	l.Advance()
	return Token{Type: ILLEGAL, Text: string(r), Pos: start}
}

// scanArrow recognizes links: an optional '<', a run of '-', '=' or '.'
// containing at least one '-' or '=', and an optional head ('>', 'x', 'o').
// Headless links need a run of three (---, ===, -.-).
func (l *Lexer) scanArrow(start syntax.Pos) (Token, bool) {
	i := 0
	if l.Peek() == '<' {
		i = 1
	}
	body, solid := 0, false
	for {
		r := l.PeekN(i + body)
		if r != '-' && r != '=' && r != '.' {
			break
		}
		if r != '.' {
			solid = true
		}
		body++
	}
	if !solid {
		return Token{}, false
	}
	n := i + body
	head := false
	switch l.PeekN(n) {
	case '>':
		head = true
		n++
	case 'x', 'o':
		if body >= 2 && !isIdentRune(l.PeekN(n+1)) {
			head = true
			n++
		}
	}
	if !(body >= 3 || (head && body >= 2)) {
		return Token{}, false
	}
	var b strings.Builder
	for range n {
		b.WriteRune(l.Advance())
	}
	return Token{Type: ARROW, Text: b.String(), Pos: start}, true
}

func (l *Lexer) scanEdgeLabel(start syntax.Pos) Token {
	l.Advance()
	var b strings.Builder
	for {
		r := l.Peek()
		if r == syntax.EOF || r == '\n' {
			return Token{Type: ILLEGAL, Text: "|", Err: "unterminated link label", Pos: start}
		}
		l.Advance()
		if r == '|' {
			return Token{Type: EDGELABEL, Text: DecodeEntities(unquoteEdgeLabel(b.String())), Pos: start}
		}
		b.WriteRune(r)
	}
}

// unquoteEdgeLabel trims the text between link pipes. A label wrapped in
// double quotes keeps its inner whitespace.
func unquoteEdgeLabel(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func (l *Lexer) closerAt(s shapeDef) string {
	for _, c := range s.closers {
		if l.HasPrefix(c) {
			return c
		}
	}
	return ""
}

func (l *Lexer) scanShape(start syntax.Pos, s shapeDef) Token {
	l.Consume(s.open)
	for l.Peek() == ' ' || l.Peek() == '\t' {
		l.Advance()
	}

	if l.Peek() == '"' {
		l.Advance()
		var b strings.Builder
		for {
			r := l.Peek()
			if r == syntax.EOF || r == '\n' {
				return Token{Type: ILLEGAL, Text: s.open, Err: "unterminated quoted label", Pos: start}
			}
			l.Advance()
			if r == '"' {
				break
			}
			b.WriteRune(r)
		}
		for l.Peek() == ' ' || l.Peek() == '\t' {
			l.Advance()
		}
		c := l.closerAt(s)
		if c == "" {
			l.SkipLine()
			return Token{Type: ILLEGAL, Text: s.open, Err: fmt.Sprintf("expected %q after quoted label", s.closers[0]), Pos: start}
		}
		l.Consume(c)
		return Token{Type: SHAPE, Text: DecodeEntities(b.String()), Open: s.open, Pos: start}
	}

	var b strings.Builder
	for {
		if c := l.closerAt(s); c != "" {
			l.Consume(c)
			return Token{Type: SHAPE, Text: DecodeEntities(strings.TrimSpace(b.String())), Open: s.open, Pos: start}
		}
		r := l.Peek()
		if r == syntax.EOF || r == '\n' {
			return Token{Type: ILLEGAL, Text: s.open, Err: fmt.Sprintf("unterminated %q shape", s.open), Pos: start}
		}
		b.WriteRune(l.Advance())
	}
}

// DecodeEntities replaces #quot; and numeric #NNN; entities in a label.
func DecodeEntities(s string) string {
	if !strings.Contains(s, "#") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '#' {
			if end := strings.IndexByte(s[i+1:], ';'); end > 0 {
				name := s[i+1 : i+1+end]
				if r, ok := entity(name); ok {
					b.WriteRune(r)
					i += end + 2
					continue
				}
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func entity(name string) (rune, bool) {
	switch name {
	case "quot":
		return '"', true
	case "amp":
		return '&', true
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	}
	if n, err := strconv.Atoi(name); err == nil && n > 0 && n <= unicode.MaxRune {
		return rune(n), true
	}
	return 0, false
}
