package dot

import (
	"strings"

	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// Parser is a recursive-descent parser over a token slice. It never fails:
// statements that do not parse are recorded as diagnostics and skipped.
type Parser struct {
	toks  []Token
	p     int
	diags []syntax.Diagnostic
}

// Parse parses DOT source.
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

// recover skips the rest of a broken statement. It stops after a ';', before
// a '}' closing the enclosing body, or before the first token on a later
// line than from, whichever comes first. Braced blocks are skipped whole.
func (p *Parser) recover(from syntax.Pos) {
	depth := 0
	for {
		t := p.peek()
		switch t.Type {
		case EOF:
			return
		case LBRACE:
			depth++
		case RBRACE:
			if depth == 0 {
				return
			}
			depth--
		case SEMI:
			if depth == 0 {
				p.next()
				return
			}
		default:
			if depth == 0 && t.Pos.Line > from.Line {
				return
			}
		}
		p.next()
	}
}

func (p *Parser) parseFile() *File {
	f := &File{}
	t := p.peek()
	if t.Type == EOF {
		return f
	}

	if t.Type != STRICT && t.Type != GRAPH && t.Type != DIGRAPH {
		p.errorf(t.Pos, "missing digraph header")
		for {
			f.Stmts = append(f.Stmts, p.parseStmtList()...)
			if r := p.peek(); r.Type == RBRACE {
				p.errorf(r.Pos, "unexpected '}'")
				p.next()
				continue
			}
			break
		}
		f.Diagnostics = p.diags
		return f
	}

	h := Header{At: t.Pos, Present: true}
	if t.Type == STRICT {
		p.next()
		h.Strict = true
	}
	switch kw := p.peek(); kw.Type {
	case DIGRAPH:
		h.Directed = true
		p.next()
	case GRAPH:
		p.next()
	default:
		p.errorf(kw.Pos, "expected graph or digraph, found %s", kw.describe())
		f.Diagnostics = p.diags
		return f
	}
	if id := p.peek(); id.IsID() {
		p.next()
		h.ID = id.Text
	}
	f.Header = h

	if lb := p.peek(); lb.Type != LBRACE {
		p.errorf(lb.Pos, "expected '{' after graph header, found %s", lb.describe())
		f.Diagnostics = p.diags
		return f
	}
	p.next()
	f.Stmts = p.parseStmtList()

	if rb := p.peek(); rb.Type != RBRACE {
		p.errorf(rb.Pos, "missing closing '}'")
	} else {
		p.next()
	}
	if rest := p.peek(); rest.Type != EOF {
		p.errorf(rest.Pos, "unexpected %s after graph body", rest.describe())
	}
	f.Diagnostics = p.diags
	return f
}

func (p *Parser) parseStmtList() []Stmt {
	var stmts []Stmt
	for {
		switch p.peek().Type {
		case RBRACE, EOF:
			return stmts
		case SEMI:
			p.next()
			continue
		}
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
	}
}

func (p *Parser) parseStmt() Stmt {
	t := p.peek()
	switch t.Type {
	case GRAPH, NODE, EDGE:
		p.next()
		if lb := p.peek(); lb.Type != LBRACK {
			p.errorf(lb.Pos, "expected '[' after %s, found %s", t.Text, lb.describe())
			p.recover(lb.Pos)
			return nil
		}
		attrs, ok := p.parseAttrLists()
		if !ok {
			return nil
		}
		return &AttrStmt{At: t.Pos, Target: strings.ToLower(t.Text), Attrs: attrs}

	case SUBGRAPH, LBRACE:
		sub, ok := p.parseSubgraph()
		if !ok {
			return nil
		}
		if p.peek().Type == EDGEOP {
			return p.parseEdgeRest(Endpoint{At: sub.At, Sub: sub})
		}
		return sub

	case ID, STRING, HTML:
		p.next()
		if p.peek().Type == EQ {
			p.next()
			v := p.peek()
			if !v.IsID() {
				p.errorf(v.Pos, "expected value after '=', found %s", v.describe())
				p.recover(v.Pos)
				return nil
			}
			p.next()
			return &AssignStmt{At: t.Pos, Key: t.Text, Value: v.Text}
		}
		ep := Endpoint{At: t.Pos, ID: t.Text, Port: p.parsePort()}
		if p.peek().Type == EDGEOP {
			return p.parseEdgeRest(ep)
		}
		ns := &NodeStmt{At: t.Pos, ID: ep.ID, Port: ep.Port}
		if p.peek().Type == LBRACK {
			attrs, ok := p.parseAttrLists()
			if !ok {
				return nil
			}
			ns.Attrs = attrs
		}
		return ns
	}

	p.errorf(t.Pos, "unexpected %s", t.describe())
	p.recover(t.Pos)
	return nil
}

func (p *Parser) parsePort() string {
	var port strings.Builder
	for i := 0; i < 2 && p.peek().Type == COLON; i++ {
		p.next()
		if id := p.peek(); id.IsID() {
			p.next()
			port.WriteString(":" + id.Text)
		}
	}
	return port.String()
}

func (p *Parser) parseEdgeRest(first Endpoint) Stmt {
	es := &EdgeStmt{At: first.At, Endpoints: []Endpoint{first}}
	for p.peek().Type == EDGEOP {
		p.next()
		t := p.peek()
		switch {
		case t.IsID():
			p.next()
			es.Endpoints = append(es.Endpoints, Endpoint{At: t.Pos, ID: t.Text, Port: p.parsePort()})
		case t.Type == SUBGRAPH || t.Type == LBRACE:
			sub, ok := p.parseSubgraph()
			if !ok {
				return nil
			}
			es.Endpoints = append(es.Endpoints, Endpoint{At: sub.At, Sub: sub})
		default:
			p.errorf(t.Pos, "expected node after edge operator, found %s", t.describe())
			p.recover(t.Pos)
			return nil
		}
	}
	if p.peek().Type == LBRACK {
		attrs, ok := p.parseAttrLists()
		if !ok {
			return nil
		}
		es.Attrs = attrs
	}
	return es
}

func (p *Parser) parseSubgraph() (*Subgraph, bool) {
	sub := &Subgraph{At: p.peek().Pos}
	if p.peek().Type == SUBGRAPH {
		p.next()
		if id := p.peek(); id.IsID() {
			p.next()
			sub.ID = id.Text
		}
	}
	if lb := p.peek(); lb.Type != LBRACE {
		p.errorf(lb.Pos, "expected '{' to open subgraph, found %s", lb.describe())
		p.recover(lb.Pos)
		return nil, false
	}
	p.next()
	sub.Stmts = p.parseStmtList()
	if rb := p.peek(); rb.Type != RBRACE {
		p.errorf(rb.Pos, "missing closing '}' for subgraph")
		return sub, true
	}
	p.next()
	return sub, true
}

// parseAttrLists parses one or more consecutive [..] lists. A key without a
// value is recorded as "true".
func (p *Parser) parseAttrLists() (Attrs, bool) {
	var attrs Attrs
	for p.peek().Type == LBRACK {
		p.next()
		for {
			t := p.peek()
			if t.Type == RBRACK {
				p.next()
				break
			}
			if !t.IsID() {
				p.errorf(t.Pos, "expected attribute name, found %s", t.describe())
				p.recover(t.Pos)
				return nil, false
			}
			p.next()
			a := Attr{At: t.Pos, Key: t.Text, Value: "true"}
			if p.peek().Type == EQ {
				p.next()
				v := p.peek()
				if !v.IsID() {
					p.errorf(v.Pos, "expected value for %s, found %s", t.Text, v.describe())
					p.recover(v.Pos)
					return nil, false
				}
				p.next()
				a.Value = v.Text
			}
			attrs = append(attrs, a)
			if sep := p.peek().Type; sep == COMMA || sep == SEMI {
				p.next()
			}
		}
	}
	return attrs, true
}
