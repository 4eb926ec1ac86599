package syntax

// EOF is returned by [Scanner.Peek] at the end of input.
const EOF rune = -1

// Scanner is a rune cursor with line and column tracking, embedded by the
// dialect lexers.
type Scanner struct {
	src  []rune
	off  int
	line int
	col  int
}

// NewScanner returns a scanner positioned at the start of src.
func NewScanner(src string) Scanner {
	return Scanner{src: []rune(src), line: 1, col: 1}
}

// Pos returns the position of the next rune.
func (s *Scanner) Pos() Pos { return Pos{Line: s.line, Col: s.col} }

// PeekN returns the rune n positions ahead without consuming it.
func (s *Scanner) PeekN(n int) rune {
	if s.off+n >= len(s.src) {
		return EOF
	}
	return s.src[s.off+n]
}

// Peek returns the next rune without consuming it.
func (s *Scanner) Peek() rune { return s.PeekN(0) }

// Advance consumes and returns the next rune.
func (s *Scanner) Advance() rune {
	r := s.Peek()
	if r == EOF {
		return EOF
	}
	s.off++
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

// HasPrefix reports whether the upcoming input starts with p.
func (s *Scanner) HasPrefix(p string) bool {
	i := 0
	for _, r := range p {
		if s.PeekN(i) != r {
			return false
		}
		i++
	}
	return true
}

// Consume advances past p, which the caller has matched with HasPrefix.
func (s *Scanner) Consume(p string) {
	for range []rune(p) {
		s.Advance()
	}
}

// SkipLine advances to the next newline without consuming it.
func (s *Scanner) SkipLine() {
	for r := s.Peek(); r != EOF && r != '\n'; r = s.Peek() {
		s.Advance()
	}
}

// SkipBlanks advances past spaces, tabs and carriage returns.
func (s *Scanner) SkipBlanks() {
	for r := s.Peek(); r == ' ' || r == '\t' || r == '\r'; r = s.Peek() {
		s.Advance()
	}
}
