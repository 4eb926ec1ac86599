package flowchart

import (
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

var directions = map[string]bool{"TD": true, "TB": true, "BT": true, "LR": true, "RL": true}

// Statements recognized and skipped. Their bodies are not parsed.
var ignoredKeywords = map[string]bool{
	"subgraph":  true,
	"end":       true,
	"classDef":  true,
	"class":     true,
	"style":     true,
	"linkStyle": true,
	"click":     true,
	"direction": true,
}

// Headers of diagram families that have no node graph.
var foreignHeaders = map[string]bool{
	"sequenceDiagram": true,
	"classDiagram":    true,
	"stateDiagram":    true,
	"erDiagram":       true,
	"gantt":           true,
	"pie":             true,
	"journey":         true,
	"gitGraph":        true,
	"mindmap":         true,
	"timeline":        true,
	"quadrantChart":   true,
}

// Parser is a recursive-descent parser over a token slice. It never fails:
// statements that do not parse are recorded as diagnostics and skipped.
type Parser struct {
	toks  []Token
	p     int
	diags []syntax.Diagnostic
}

// Parse parses flowchart source.
func Parse(src string) *File {
	p := &Parser{toks: Tokenize(src)}
	return p.parseFile()
}

func (p *Parser) peek() Token { return p.toks[p.p] }

func (p *Parser) next() Token {
	t := p.toks[p.p]
	if t.Type != EOF {
		p.p++
	}
	return t
}

func (p *Parser) errorf(at syntax.Pos, format string, args ...any) {
	p.diags = append(p.diags, syntax.Errorf(at, format, args...))
}

func atTerminator(t Token) bool {
	return t.Type == NEWLINE || t.Type == SEMI || t.Type == EOF
}

// recover skips past the end of the current statement.
func (p *Parser) recover() {
	for !atTerminator(p.peek()) {
		p.next()
	}
	p.next()
}

func (p *Parser) skipBlank() {
	for t := p.peek(); t.Type == NEWLINE || t.Type == SEMI; t = p.peek() {
		p.next()
	}
}

func (p *Parser) parseFile() *File {
	f := &File{}
	p.skipBlank()
	f.Header = p.parseHeader()
	if f.Header.Foreign {
		p.errorf(f.Header.At, "%s diagrams have no node graph", f.Header.Keyword)
		f.Diagnostics = p.diags
		return f
	}

	for {
		p.skipBlank()
		if p.peek().Type == EOF {
			break
		}
		if s := p.parseStmt(); s != nil {
			f.Stmts = append(f.Stmts, s)
		}
	}
	f.Diagnostics = p.diags
	return f
}

func (p *Parser) parseHeader() Header {
	t := p.peek()
	if t.Type != IDENT {
		if t.Type != EOF {
			p.errorf(t.Pos, "missing graph header")
		}
		return Header{}
	}
	if foreignHeaders[t.Text] {
		return Header{At: t.Pos, Keyword: t.Text, Present: true, Foreign: true}
	}
	if t.Text != "graph" && t.Text != "flowchart" {
		p.errorf(t.Pos, "missing graph header")
		return Header{}
	}

	p.next()
	h := Header{At: t.Pos, Keyword: t.Text, Present: true}
	if d := p.peek(); d.Type == IDENT && directions[d.Text] {
		p.next()
		h.Direction = d.Text
	}
	if t := p.peek(); !atTerminator(t) {
		p.errorf(t.Pos, "unexpected %s after header", t.describe())
	}
	p.recover()
	return h
}

func (p *Parser) parseStmt() Stmt {
	t := p.peek()
	if t.Type == IDENT && ignoredKeywords[t.Text] {
		p.recover()
		return &IgnoredStmt{At: t.Pos, Keyword: t.Text}
	}
	return p.parseChain()
}

func (p *Parser) parseChain() Stmt {
	first, ok := p.parseNodeRef()
	if !ok {
		p.recover()
		return nil
	}
	c := &ChainStmt{Nodes: []NodeRef{first}}
	for {
		t := p.peek()
		switch t.Type {
		case NEWLINE, SEMI, EOF:
			p.next()
			return c
		case AMP:
			p.errorf(t.Pos, "'&' node groups are not supported")
			p.recover()
			return nil
		case ARROW:
			p.next()
			l := Link{At: t.Pos, Arrow: t.Text}
			if lt := p.peek(); lt.Type == EDGELABEL {
				p.next()
				l.Label = lt.Text
			}
			ref, ok := p.parseNodeRef()
			if !ok {
				p.recover()
				return nil
			}
			c.Links = append(c.Links, l)
			c.Nodes = append(c.Nodes, ref)
		default:
			p.errorf(t.Pos, "unexpected %s", t.describe())
			p.recover()
			return nil
		}
	}
}

func (p *Parser) parseNodeRef() (NodeRef, bool) {
	t := p.peek()
	if t.Type != IDENT {
		p.errorf(t.Pos, "expected node identifier, found %s", t.describe())
		return NodeRef{}, false
	}
	p.next()
	ref := NodeRef{At: t.Pos, ID: t.Text}
	if s := p.peek(); s.Type == SHAPE {
		p.next()
		ref.Shape = &Shape{Open: s.Open, Label: s.Text, Kind: KindOf(s.Open)}
	}
	if c := p.peek(); c.Type == CLASSREF {
		p.next()
		ref.Class = c.Text
	}
	return ref, true
}
