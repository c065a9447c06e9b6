package ast

import (
	"slices"
	"sort"
)

// KeyTarget is a set of levels a workflow key may appear at.
type KeyTarget uint8

const (
	KeyTargetNone     KeyTarget = 0
	KeyTargetWorkflow KeyTarget = 1 << (iota - 1)
	KeyTargetJob
	KeyTargetStep
)

func (t KeyTarget) String() string {
	switch t {
	case KeyTargetWorkflow:
		return "workflow"
	case KeyTargetJob:
		return "job"
	case KeyTargetStep:
		return "step"
	}
	return "key"
}

// KeySpec describes a key of the workflow syntax and where it is valid.
type KeySpec struct {
	Name    string
	Targets KeyTarget
}

var keyCatalog = []KeySpec{
	{Name: "name", Targets: KeyTargetWorkflow | KeyTargetJob | KeyTargetStep},
	{Name: "run-name", Targets: KeyTargetWorkflow},
	{Name: "on", Targets: KeyTargetWorkflow},
	{Name: "permissions", Targets: KeyTargetWorkflow | KeyTargetJob},
	{Name: "env", Targets: KeyTargetWorkflow | KeyTargetJob | KeyTargetStep},
	{Name: "defaults", Targets: KeyTargetWorkflow | KeyTargetJob},
	{Name: "concurrency", Targets: KeyTargetWorkflow | KeyTargetJob},
	{Name: "jobs", Targets: KeyTargetWorkflow},
	{Name: "needs", Targets: KeyTargetJob},
	{Name: "if", Targets: KeyTargetJob | KeyTargetStep},
	{Name: "runs-on", Targets: KeyTargetJob},
	{Name: "environment", Targets: KeyTargetJob},
	{Name: "outputs", Targets: KeyTargetJob},
	{Name: "steps", Targets: KeyTargetJob},
	{Name: "timeout-minutes", Targets: KeyTargetJob | KeyTargetStep},
	{Name: "strategy", Targets: KeyTargetJob},
	{Name: "continue-on-error", Targets: KeyTargetJob | KeyTargetStep},
	{Name: "container", Targets: KeyTargetJob},
	{Name: "services", Targets: KeyTargetJob},
	{Name: "uses", Targets: KeyTargetJob | KeyTargetStep},
	{Name: "with", Targets: KeyTargetJob | KeyTargetStep},
	{Name: "secrets", Targets: KeyTargetJob},
	{Name: "id", Targets: KeyTargetStep},
	{Name: "run", Targets: KeyTargetStep},
	{Name: "working-directory", Targets: KeyTargetStep},
	{Name: "shell", Targets: KeyTargetStep},
}

var keyIndex = func() map[string]KeyTarget {
	m := make(map[string]KeyTarget, len(keyCatalog))
	for _, spec := range keyCatalog {
		m[spec.Name] |= spec.Targets
	}
	return m
}()

// IsKnownKey reports whether name is valid at the given level.
func IsKnownKey(target KeyTarget, name string) bool {
	return keyIndex[name]&target != 0
}

// KnownKeys returns the sorted keys valid at the given level.
func KnownKeys(target KeyTarget) []string {
	out := make([]string, 0, len(keyCatalog))
	for _, spec := range keyCatalog {
		if spec.Targets&target != 0 && !slices.Contains(out, spec.Name) {
			out = append(out, spec.Name)
		}
	}
	sort.Strings(out)
	return out
}
