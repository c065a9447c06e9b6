package expr

type tokKind uint8

const (
	tokEOF tokKind = iota
	tokIllegal
	tokIdent
	tokNumber
	tokString
	tokDot
	tokComma
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokStar
	tokNot
	tokLess
	tokLessEq
	tokGreater
	tokGreaterEq
	tokEqEq
	tokNotEq
	tokAndAnd
	tokOrOr
)

type token struct {
	kind  tokKind
	start int // offset in the lexed text
	end   int
	text  string
	// unterminated string literal
	open bool
}

// lexer scans the text between the markers; offsets are relative to it.
type lexer struct {
	src string
	off int
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	// identifiers may contain dashes: steps.my-step.outputs
	return isIdentStart(c) || isDigit(c) || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func (lx *lexer) peekAt(i int) byte {
	if lx.off+i >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+i]
}

func (lx *lexer) skipSpace() {
	for lx.off < len(lx.src) {
		switch lx.src[lx.off] {
		case ' ', '\t', '\n', '\r':
			lx.off++
		default:
			return
		}
	}
}

func (lx *lexer) next() token {
	lx.skipSpace()
	start := lx.off
	if lx.off >= len(lx.src) {
		return token{kind: tokEOF, start: start, end: start}
	}
	c := lx.src[lx.off]
	switch {
	case isIdentStart(c):
		return lx.scanIdent()
	case isDigit(c), c == '-' && isDigit(lx.peekAt(1)), c == '.' && isDigit(lx.peekAt(1)) && lx.prevAllowsNumber():
		return lx.scanNumber()
	case c == '\'':
		return lx.scanString()
	}

	two := func(kind tokKind) token {
		lx.off += 2
		return token{kind: kind, start: start, end: lx.off, text: lx.src[start:lx.off]}
	}
	one := func(kind tokKind) token {
		lx.off++
		return token{kind: kind, start: start, end: lx.off, text: lx.src[start:lx.off]}
	}
	n := lx.peekAt(1)
	switch c {
	case '.':
		return one(tokDot)
	case ',':
		return one(tokComma)
	case '(':
		return one(tokLParen)
	case ')':
		return one(tokRParen)
	case '[':
		return one(tokLBracket)
	case ']':
		return one(tokRBracket)
	case '*':
		return one(tokStar)
	case '!':
		if n == '=' {
			return two(tokNotEq)
		}
		return one(tokNot)
	case '<':
		if n == '=' {
			return two(tokLessEq)
		}
		return one(tokLess)
	case '>':
		if n == '=' {
			return two(tokGreaterEq)
		}
		return one(tokGreater)
	case '=':
		if n == '=' {
			return two(tokEqEq)
		}
	case '&':
		if n == '&' {
			return two(tokAndAnd)
		}
	case '|':
		if n == '|' {
			return two(tokOrOr)
		}
	}
	return one(tokIllegal)
}

// prevAllowsNumber: ".5" is a number only where an operand may start.
func (lx *lexer) prevAllowsNumber() bool {
	i := lx.off - 1
	for i >= 0 && (lx.src[i] == ' ' || lx.src[i] == '\t') {
		i--
	}
	if i < 0 {
		return true
	}
	switch lx.src[i] {
	case '(', ',', '!', '<', '>', '=', '&', '|', '[':
		return true
	}
	return false
}

func (lx *lexer) scanIdent() token {
	start := lx.off
	for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
		lx.off++
	}
	return token{kind: tokIdent, start: start, end: lx.off, text: lx.src[start:lx.off]}
}

func (lx *lexer) scanNumber() token {
	start := lx.off
	if lx.src[lx.off] == '-' {
		lx.off++
	}
	if lx.peekAt(0) == '0' && (lx.peekAt(1) == 'x' || lx.peekAt(1) == 'X') {
		lx.off += 2
		for lx.off < len(lx.src) && isHexDigit(lx.src[lx.off]) {
			lx.off++
		}
	} else {
		for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
			lx.off++
		}
		if lx.peekAt(0) == '.' && isDigit(lx.peekAt(1)) {
			lx.off++
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.off++
			}
		}
		if c := lx.peekAt(0); c == 'e' || c == 'E' {
			save := lx.off
			lx.off++
			if c := lx.peekAt(0); c == '+' || c == '-' {
				lx.off++
			}
			if !isDigit(lx.peekAt(0)) {
				lx.off = save
			}
			for lx.off < len(lx.src) && isDigit(lx.src[lx.off]) {
				lx.off++
			}
		}
	}
	// 1abc is not a number followed by an identifier
	if lx.off < len(lx.src) && isIdentStart(lx.src[lx.off]) {
		for lx.off < len(lx.src) && isIdentPart(lx.src[lx.off]) {
			lx.off++
		}
		return token{kind: tokIllegal, start: start, end: lx.off, text: lx.src[start:lx.off]}
	}
	return token{kind: tokNumber, start: start, end: lx.off, text: lx.src[start:lx.off]}
}

// scanString reads a single-quoted literal; '' is an escaped quote.
func (lx *lexer) scanString() token {
	start := lx.off
	lx.off++
	buf := make([]byte, 0, 16)
	for lx.off < len(lx.src) {
		c := lx.src[lx.off]
		if c == '\'' {
			if lx.peekAt(1) == '\'' {
				buf = append(buf, '\'')
				lx.off += 2
				continue
			}
			lx.off++
			return token{kind: tokString, start: start, end: lx.off, text: string(buf)}
		}
		buf = append(buf, c)
		lx.off++
	}
	return token{kind: tokString, start: start, end: lx.off, text: string(buf), open: true}
}
