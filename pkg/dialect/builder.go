package dialect

import (
	"strconv"

	"github.com/hanhandi-git/flowchartRenderer/pkg/diagram"
	"github.com/hanhandi-git/flowchartRenderer/pkg/dialect/syntax"
)

// builder walks lowered declarations into a graph.
type builder struct {
	opts     Options
	g        *diagram.Graph
	ids      map[string]string
	declared map[string]bool
	next     int
	added    int
	diags    []Diagnostic
}

func newBuilder(opts Options) *builder {
	b := &builder{
		opts:     opts,
		g:        diagram.New(),
		ids:      make(map[string]string),
		declared: make(map[string]bool),
		next:     1,
	}
	for _, id := range opts.Previous {
		if v, err := strconv.Atoi(id); err == nil && v >= b.next {
			b.next = v + 1
		}
	}
	return b
}

func (b *builder) build(decls []syntax.Decl) *diagram.Graph {
	for _, d := range decls {
		if n, ok := d.(syntax.NodeDecl); ok {
			b.declared[n.Ident] = true
		}
	}

	if b.opts.Resolve == TwoPass {
		for _, d := range decls {
			if n, ok := d.(syntax.NodeDecl); ok {
				b.node(n)
			}
		}
		for _, d := range decls {
			if e, ok := d.(syntax.EdgeDecl); ok {
				b.edge(e)
			}
		}
		return b.g
	}

	for _, d := range decls {
		switch d := d.(type) {
		case syntax.NodeDecl:
			b.node(d)
		case syntax.EdgeDecl:
			b.edge(d)
		}
	}
	return b.g
}

func (b *builder) node(d syntax.NodeDecl) {
	if id, ok := b.ids[d.Ident]; ok {
		if d.HasLabel {
			_ = b.g.SetLabel(id, d.Label)
		}
		if d.HasKind {
			_ = b.g.SetKind(id, d.Kind)
		}
		return
	}

	id := b.assign(d.Ident)
	b.added++
	n := diagram.Node{
		ID:       id,
		Kind:     diagram.KindProcess,
		Label:    d.Ident,
		Position: b.position(id),
	}
	if d.HasKind && d.Kind.Valid() {
		n.Kind = d.Kind
	}
	if d.HasLabel {
		n.Label = d.Label
	}
	// assign guarantees id is unused, so AddNode cannot fail here.
	_ = b.g.AddNode(n)
	b.ids[d.Ident] = id
}

// assign picks the node ID for a newly declared identifier.
func (b *builder) assign(ident string) string {
	if id, ok := b.opts.Previous[ident]; ok && id != "" {
		if _, taken := b.g.Node(id); !taken {
			return id
		}
	}
	// Fresh IDs start above every numeric ID in Previous, so they never
	// steal the ID of an identifier declared later in the document.
	for {
		id := strconv.Itoa(b.next)
		b.next++
		if _, taken := b.g.Node(id); !taken {
			return id
		}
	}
}

func (b *builder) position(id string) diagram.Point {
	if p, ok := b.opts.Positions[id]; ok {
		return p
	}
	if v, err := strconv.Atoi(id); err == nil {
		return diagram.GridPosition(v)
	}
	return diagram.GridPosition(b.added)
}

func (b *builder) edge(d syntax.EdgeDecl) {
	src, ok := b.resolve(d, d.From)
	if !ok {
		return
	}
	dst, ok := b.resolve(d, d.To)
	if !ok {
		return
	}
	if _, err := b.g.Connect(src, dst, d.Label); err != nil {
		b.diags = append(b.diags, syntax.Errorf(d.At, "edge %s -> %s dropped: %v", d.From, d.To, err))
	}
}

func (b *builder) resolve(d syntax.EdgeDecl, ident string) (string, bool) {
	if id, ok := b.ids[ident]; ok {
		return id, true
	}
	reason := "is not declared"
	if b.declared[ident] {
		reason = "is declared later (forward reference)"
	}
	b.diags = append(b.diags, syntax.Errorf(d.At, "edge %s -> %s dropped: %s %s", d.From, d.To, ident, reason))
	return "", false
}
