package ast

import (
	"strconv"

	"wflint/internal/source"
)

// Workflow is the root of a workflow file.
type Workflow struct {
	File    source.FileID
	Pos     source.Pos
	Root    *Mapping // generic view of the whole document, never nil
	Name    *String
	RunName *String
	OnKey   *String
	On      Node // scalar, sequence or mapping of events
	Env     *Mapping
	JobsKey *String
	Jobs    []*Job // declaration order, duplicates excluded
	Unknown []*Entry

	index map[string]*Job
}

// Job returns the job declared under id, or nil.
func (w *Workflow) Job(id string) *Job {
	if w == nil {
		return nil
	}
	if w.index != nil {
		return w.index[id]
	}
	for _, j := range w.Jobs {
		if j.ID.Value == id {
			return j
		}
	}
	return nil
}

// Reindex rebuilds the id index. Call it after Jobs changes; the index is
// read concurrently by rules and must not be built lazily.
func (w *Workflow) Reindex() {
	w.index = make(map[string]*Job, len(w.Jobs))
	for _, j := range w.Jobs {
		if _, dup := w.index[j.ID.Value]; !dup {
			w.index[j.ID.Value] = j
		}
	}
}

// Job is one entry of the jobs mapping.
type Job struct {
	ID       *String
	Pos      source.Pos // position of ID
	Body     *Mapping   // empty placeholder when the job is not a mapping
	Name     *String
	RunsOn   Node
	NeedsKey *String
	Needs    []*String
	If       *String
	StepsKey *String
	Steps    []*Step
	Outputs  *Mapping
	Env      *Mapping
	Uses     *String // reusable workflow call
	With     []*Pair
	Unknown  []*Entry
}

// HasNeed reports whether id is literally listed in the job's needs.
func (j *Job) HasNeed(id string) bool {
	for _, n := range j.Needs {
		if n.Value == id {
			return true
		}
	}
	return false
}

// StepByID returns the first step of the job with the given id.
func (j *Job) StepByID(id string) *Step {
	for _, s := range j.Steps {
		if s.ID != nil && s.ID.Value == id {
			return s
		}
	}
	return nil
}

// Step is one item of a job's steps sequence.
type Step struct {
	Index   int
	Pos     source.Pos
	Body    *Mapping // empty placeholder when the item is not a mapping
	ID      *String
	Name    *String
	If      *String
	Uses    *String
	Run     *String
	WithKey *String
	With    []*Pair
	Env     *Mapping
	Unknown []*Entry
}

// Input returns the with: value for name, or nil.
func (s *Step) Input(name string) *Pair {
	for _, p := range s.With {
		if p.Key.Value == name {
			return p
		}
	}
	return nil
}

// Label names the step for messages: its id, its name or its position.
func (s *Step) Label() string {
	switch {
	case s.ID != nil && s.ID.Value != "":
		return s.ID.Value
	case s.Name != nil && s.Name.Value != "":
		return s.Name.Value
	}
	return "#" + strconv.Itoa(s.Index+1)
}
