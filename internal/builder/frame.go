package builder

import (
	"wflint/internal/ast"
	"wflint/internal/yamltok"
)

// frameKind описывает, какую конструкцию представляет открытый блок.
type frameKind uint8

const (
	frameMap frameKind = iota
	frameSeq
	frameTop
	frameJobs
	frameJob
	frameSteps
	frameStep
	frameNeeds
	frameWith
	frameOn
)

func (k frameKind) String() string {
	switch k {
	case frameMap:
		return "mapping"
	case frameSeq:
		return "sequence"
	case frameTop:
		return "workflow"
	case frameJobs:
		return "jobs"
	case frameJob:
		return "job"
	case frameSteps:
		return "steps"
	case frameStep:
		return "step"
	case frameNeeds:
		return "needs"
	case frameWith:
		return "with"
	case frameOn:
		return "on"
	}
	return "frame"
}

type keyState uint8

const (
	wantKey keyState = iota
	wantValue
)

type frame struct {
	kind frameKind
	tok  yamltok.Token

	mapping *ast.Mapping
	seq     *ast.Sequence

	// mapping key state
	want keyState
	key  *ast.String
	drop bool // next value is discarded (bad or duplicate key)
	seen map[string]*ast.String

	// domain children collected while the frame is open
	jobs  []*ast.Job
	steps []*ast.Step
}

func newFrame(kind frameKind, tok yamltok.Token) *frame {
	f := &frame{kind: kind, tok: tok}
	if tok.Kind == yamltok.KindMappingStart {
		f.mapping = &ast.Mapping{Pos: tok.Pos, Flow: tok.Flow}
		f.seen = make(map[string]*ast.String)
	} else {
		f.seq = &ast.Sequence{Pos: tok.Pos, Flow: tok.Flow}
	}
	return f
}

func (f *frame) node() ast.Node {
	if f.mapping != nil {
		return f.mapping
	}
	return f.seq
}

func (f *frame) closes(kind yamltok.Kind) bool {
	if f.mapping != nil {
		return kind == yamltok.KindMappingEnd
	}
	return kind == yamltok.KindSequenceEnd
}

// currentKey returns the key whose value is being read, or "".
func (f *frame) currentKey() string {
	if f == nil || f.mapping == nil || f.want != wantValue || f.key == nil {
		return ""
	}
	return f.key.Value
}

// childKind infers the kind of a value nested directly under parent.
func childKind(parent *frame, generic frameKind) frameKind {
	if parent == nil {
		return frameTop
	}
	if parent.mapping != nil && parent.want == wantKey {
		return generic
	}
	key := parent.currentKey()
	switch parent.kind {
	case frameTop:
		switch key {
		case "jobs":
			return frameJobs
		case "on":
			return frameOn
		}
	case frameJobs:
		return frameJob
	case frameJob:
		switch key {
		case "steps":
			return frameSteps
		case "needs":
			return frameNeeds
		case "with":
			return frameWith
		}
	case frameSteps:
		return frameStep
	case frameStep:
		if key == "with" {
			return frameWith
		}
	}
	return generic
}
