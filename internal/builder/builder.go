// Package builder assembles the workflow AST from the token stream with an
// explicit frame stack. It never aborts: structural failures are reported
// and replaced by placeholder nodes so later stages see a best-effort tree.
package builder

import (
	"fmt"

	"wflint/internal/ast"
	"wflint/internal/diag"
	"wflint/internal/expr"
	"wflint/internal/source"
	"wflint/internal/yamltok"
)

// RuleName is stamped on structural problems found while building.
const RuleName = "structure"

// Options tune the builder.
type Options struct {
	// Partial marks a token stream cut short by a syntax error that was
	// already reported; an empty result is then not reported again.
	Partial bool
}

// Builder holds the state of one Build call.
type Builder struct {
	file *source.File
	r    diag.Reporter
	opts Options

	stack   []*frame
	root    ast.Node
	docs    int
	skipDoc bool

	jobs  map[*ast.Mapping][]*ast.Job
	steps map[*ast.Sequence][]*ast.Step
}

// Build turns tokens of file into a Workflow. The result is never nil.
func Build(file *source.File, tokens []yamltok.Token, r diag.Reporter, opts Options) *ast.Workflow {
	if r == nil {
		r = diag.NopReporter
	}
	b := &Builder{
		file:  file,
		r:     r,
		opts:  opts,
		stack: make([]*frame, 0, 16),
		jobs:  make(map[*ast.Mapping][]*ast.Job),
		steps: make(map[*ast.Sequence][]*ast.Step),
	}
	for _, tok := range tokens {
		b.consume(tok)
	}
	b.closeAll()
	return b.workflow()
}

func (b *Builder) consume(tok yamltok.Token) {
	if tok.Kind == yamltok.KindBlockMarker {
		b.docs++
		if b.docs > 1 {
			b.closeAll()
			b.report(diag.SevWarning, diag.StrExtraDocument, tok.Pos.Span(0),
				"only the first YAML document of a workflow file is used; this document is ignored")
			b.skipDoc = true
		}
		return
	}
	if b.skipDoc {
		return
	}
	switch tok.Kind {
	case yamltok.KindMappingStart:
		b.push(tok, frameMap)
	case yamltok.KindSequenceStart:
		b.push(tok, frameSeq)
	case yamltok.KindMappingEnd, yamltok.KindSequenceEnd:
		b.pop(tok)
	case yamltok.KindScalar:
		b.scalar(tok)
	}
}

func (b *Builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) push(tok yamltok.Token, generic frameKind) {
	kind := childKind(b.top(), generic)
	b.stack = append(b.stack, newFrame(kind, tok))
}

func (b *Builder) pop(tok yamltok.Token) {
	f := b.top()
	if f == nil {
		b.report(diag.SevError, diag.StrMismatchedEnd, tok.Pos.Span(0),
			fmt.Sprintf("unexpected %s with no open block", tok.Kind))
		return
	}
	if !f.closes(tok.Kind) {
		b.report(diag.SevError, diag.StrMismatchedEnd, tok.Pos.Span(0),
			fmt.Sprintf("%s does not close the %s opened at line %d", tok.Kind, f.kind, f.tok.Pos.Line))
	}
	b.closeTop()
}

// closeTop pops the innermost frame and attaches its node to the parent.
func (b *Builder) closeTop() {
	f := b.top()
	b.stack = b.stack[:len(b.stack)-1]
	if f.mapping != nil && f.want == wantValue && f.key != nil && !f.drop {
		// a key without value; keep it with an empty value
		f.mapping.Entries = append(f.mapping.Entries, &ast.Entry{Key: f.key, Value: b.emptyString(f.key.Pos)})
	}
	node := f.node()
	b.complete(f, node)
	b.attach(node)
}

func (b *Builder) closeAll() {
	if len(b.stack) == 0 {
		return
	}
	inner := b.top()
	b.report(diag.SevError, diag.StrUnterminated, inner.tok.Pos.Span(0),
		fmt.Sprintf("%s block is never closed", inner.kind))
	for len(b.stack) > 0 {
		b.closeTop()
	}
}

func (b *Builder) scalar(tok yamltok.Token) {
	parent := b.top()
	s := &ast.String{
		Value: tok.Value,
		Raw:   tok.Raw,
		Pos:   tok.Pos,
		Style: tok.Style,
		Tag:   tok.Tag,
	}
	isValue := parent == nil || parent.mapping == nil || parent.want == wantValue
	condition := isValue && parent != nil && (parent.kind == frameJob || parent.kind == frameStep) &&
		parent.currentKey() == "if"

	if !b.discarding() {
		// выражения разбираются по декодированному тексту, спаны остаются в исходнике
		value, offs := yamltok.Unquote(s.Raw, s.Style)
		s.Exprs = expr.Parse(expr.Text{Value: value, Offsets: offs}, condition, s.Pos, b.r)
	}

	b.complete(&frame{kind: childKind(parent, frameMap), tok: tok}, s)
	b.attach(s)
}

// discarding reports whether the value being read will be thrown away.
func (b *Builder) discarding() bool {
	return b.discardingAbove(nil)
}

// discardingAbove is discarding that ignores the frame skip.
func (b *Builder) discardingAbove(skip *frame) bool {
	for _, f := range b.stack {
		if f != skip && f.mapping != nil && f.want == wantValue && f.drop {
			return true
		}
	}
	return false
}

// attach adds a finished node to the innermost open frame.
func (b *Builder) attach(node ast.Node) {
	parent := b.top()
	if parent == nil {
		if b.root == nil {
			b.root = node
		}
		return
	}
	if parent.seq != nil {
		parent.seq.Items = append(parent.seq.Items, node)
		return
	}

	if parent.want == wantKey {
		key, ok := node.(*ast.String)
		if !ok {
			b.report(diag.SevError, diag.StrExpectedScalar, node.Position().Span(0),
				"mapping keys must be scalars")
			parent.want, parent.key, parent.drop = wantValue, nil, true
			return
		}
		b.setKey(parent, key)
		return
	}

	key, drop := parent.key, parent.drop
	parent.want, parent.key, parent.drop = wantKey, nil, false
	if drop {
		return
	}
	parent.mapping.Entries = append(parent.mapping.Entries, &ast.Entry{Key: key, Value: node})
}

func (b *Builder) setKey(f *frame, key *ast.String) {
	f.want, f.key, f.drop = wantValue, key, false
	prev, dup := f.seen[key.Value]
	if !dup {
		f.seen[key.Value] = key
		return
	}
	f.drop = true
	code, msg := diag.StrDuplicateKey, fmt.Sprintf("duplicate key %q", key.Value)
	if f.kind == frameJobs {
		code, msg = diag.StrDuplicateJob, fmt.Sprintf("duplicate job id %q; the first declaration is used", key.Value)
	}
	if b.discardingAbove(f) {
		return
	}
	diag.ReportError(b.r, code, key.Span(), msg).
		WithRule(RuleName).
		WithNote(prev.Span(), "first declared here").
		Emit()
}

func (b *Builder) report(sev diag.Severity, code diag.Code, sp source.Span, msg string) {
	diag.NewReportBuilder(b.r, sev, code, sp, msg).WithRule(RuleName).Emit()
}

func (b *Builder) emptyString(pos source.Pos) *ast.String {
	return &ast.String{Pos: pos, Tag: "!!null"}
}
