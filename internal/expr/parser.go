package expr

import (
	"fmt"

	"wflint/internal/source"
)

// MaxDepth bounds nesting of parentheses, calls, indexes and negations.
const MaxDepth = 64

type parseError struct {
	start, end int
	msg        string
}

type parser struct {
	lx    lexer
	tok   token
	file  source.FileID
	at    func(int) uint32 // absolute offset of src[i]
	depth int
	err   *parseError
}

// parseText parses a complete expression. On failure it returns the first error.
func parseText(src string, file source.FileID, at func(int) uint32) (Node, *parseError) {
	p := &parser{lx: lexer{src: src}, file: file, at: at}
	p.advance()
	if p.tok.kind == tokEOF {
		return nil, &parseError{start: 0, end: len(src), msg: "empty expression"}
	}
	n, ok := p.parseExpr(0)
	if ok && p.tok.kind != tokEOF {
		p.fail(p.tok, fmt.Sprintf("unexpected %s after expression", describe(p.tok)))
		ok = false
	}
	if !ok {
		return nil, p.err
	}
	return n, nil
}

func (p *parser) advance() token {
	prev := p.tok
	p.tok = p.lx.next()
	return prev
}

func (p *parser) span(start, end int) source.Span {
	return source.Span{
		File:  p.file,
		Start: p.at(start),
		End:   p.at(end),
	}
}

func (p *parser) fail(tok token, msg string) {
	if p.err != nil {
		return
	}
	p.err = &parseError{start: tok.start, end: tok.end, msg: msg}
}

func (p *parser) enter() bool {
	p.depth++
	if p.depth > MaxDepth {
		p.fail(p.tok, fmt.Sprintf("expression nested deeper than %d levels", MaxDepth))
		return false
	}
	return true
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expect(kind tokKind, what string) (token, bool) {
	if p.tok.kind != kind {
		p.fail(p.tok, fmt.Sprintf("expected %s, found %s", what, describe(p.tok)))
		return p.tok, false
	}
	return p.advance(), true
}

// parseExpr: Pratt-цикл по бинарным операторам; все они левоассоциативны.
func (p *parser) parseExpr(minPrec int) (Node, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for {
		prec := binaryPrec(p.tok.kind)
		if prec < 0 || prec < minPrec {
			break
		}
		opTok := p.advance()
		if !p.enter() {
			return nil, false
		}
		right, ok := p.parseExpr(prec + 1)
		p.leave()
		if !ok {
			return nil, false
		}
		left = &Binary{
			Sp:     left.Span().Cover(right.Span()),
			Op:     binaryOp(opTok.kind),
			OpSpan: p.span(opTok.start, opTok.end),
			Left:   left,
			Right:  right,
		}
	}
	return left, true
}

func (p *parser) parseUnary() (Node, bool) {
	if p.tok.kind != tokNot {
		return p.parsePostfix()
	}
	bang := p.advance()
	if !p.enter() {
		return nil, false
	}
	operand, ok := p.parseUnary()
	p.leave()
	if !ok {
		return nil, false
	}
	return &Unary{Sp: p.span(bang.start, bang.end).Cover(operand.Span()), Operand: operand}, true
}

func (p *parser) parsePostfix() (Node, bool) {
	var (
		ref  *ContextRef
		base Node
	)
	switch p.tok.kind {
	case tokIdent:
		ident := p.advance()
		switch ident.text {
		case "true", "false":
			base = &Literal{Sp: p.span(ident.start, ident.end), Kind: LitBool, Value: ident.text}
		case "null":
			base = &Literal{Sp: p.span(ident.start, ident.end), Kind: LitNull, Value: ident.text}
		default:
			if p.tok.kind == tokLParen {
				call, ok := p.parseCall(ident)
				if !ok {
					return nil, false
				}
				base = call
			} else {
				sp := p.span(ident.start, ident.end)
				ref = &ContextRef{Sp: sp, Parts: []Part{{Name: ident.text, Span: sp}}}
			}
		}
	default:
		n, ok := p.parsePrimary()
		if !ok {
			return nil, false
		}
		base = n
	}

	for p.tok.kind == tokDot || p.tok.kind == tokLBracket {
		if ref == nil {
			ref = &ContextRef{Sp: base.Span(), Base: base}
		}
		part, end, ok := p.parsePart()
		if !ok {
			return nil, false
		}
		ref.Parts = append(ref.Parts, part)
		ref.Sp.End = end
	}
	if ref != nil {
		return ref, true
	}
	return base, true
}

// parsePart reads one .name, .* or [index] segment.
func (p *parser) parsePart() (Part, uint32, bool) {
	if p.tok.kind == tokDot {
		p.advance()
		switch p.tok.kind {
		case tokIdent:
			id := p.advance()
			sp := p.span(id.start, id.end)
			return Part{Name: id.text, Span: sp}, sp.End, true
		case tokStar:
			star := p.advance()
			sp := p.span(star.start, star.end)
			return Part{Name: "*", Span: sp, Wildcard: true}, sp.End, true
		}
		p.fail(p.tok, fmt.Sprintf("expected property name after '.', found %s", describe(p.tok)))
		return Part{}, 0, false
	}

	open := p.advance()
	if p.tok.kind == tokStar {
		p.advance()
		cl, ok := p.expect(tokRBracket, "']'")
		if !ok {
			return Part{}, 0, false
		}
		sp := p.span(open.start, cl.end)
		return Part{Name: "*", Span: sp, Wildcard: true}, sp.End, true
	}
	if !p.enter() {
		return Part{}, 0, false
	}
	idx, ok := p.parseExpr(0)
	p.leave()
	if !ok {
		return Part{}, 0, false
	}
	cl, ok := p.expect(tokRBracket, "']'")
	if !ok {
		return Part{}, 0, false
	}
	part := Part{Span: p.span(open.start, cl.end), Index: idx}
	if lit, isLit := idx.(*Literal); isLit && lit.Kind == LitString {
		part.Name = lit.Value
		part.Span = lit.Sp
	}
	return part, p.span(open.start, cl.end).End, true
}

func (p *parser) parseCall(name token) (Node, bool) {
	p.advance() // (
	if !p.enter() {
		return nil, false
	}
	defer p.leave()
	call := &Call{Name: name.text, NameSpan: p.span(name.start, name.end)}
	if p.tok.kind != tokRParen {
		for {
			arg, ok := p.parseExpr(0)
			if !ok {
				return nil, false
			}
			call.Args = append(call.Args, arg)
			if p.tok.kind != tokComma {
				break
			}
			p.advance()
		}
	}
	cl, ok := p.expect(tokRParen, "')' to close call")
	if !ok {
		return nil, false
	}
	call.Sp = p.span(name.start, cl.end)
	return call, true
}

func (p *parser) parsePrimary() (Node, bool) {
	tok := p.tok
	switch tok.kind {
	case tokNumber:
		p.advance()
		return &Literal{Sp: p.span(tok.start, tok.end), Kind: LitNumber, Value: tok.text}, true
	case tokString:
		if tok.open {
			p.fail(tok, "unterminated string literal")
			return nil, false
		}
		p.advance()
		return &Literal{Sp: p.span(tok.start, tok.end), Kind: LitString, Value: tok.text}, true
	case tokLParen:
		p.advance()
		if !p.enter() {
			return nil, false
		}
		inner, ok := p.parseExpr(0)
		p.leave()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(tokRParen, "')'"); !ok {
			return nil, false
		}
		return inner, true
	case tokEOF:
		p.fail(tok, "unexpected end of expression")
	default:
		p.fail(tok, fmt.Sprintf("unexpected %s", describe(tok)))
	}
	return nil, false
}

func describe(tok token) string {
	switch tok.kind {
	case tokEOF:
		return "end of expression"
	case tokIdent:
		return fmt.Sprintf("identifier %q", tok.text)
	case tokNumber:
		return fmt.Sprintf("number %s", tok.text)
	case tokString:
		return "string literal"
	case tokIllegal:
		return fmt.Sprintf("invalid token %q", tok.text)
	}
	return fmt.Sprintf("'%s'", tok.text)
}
