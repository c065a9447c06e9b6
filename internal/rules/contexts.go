package rules

import (
	"slices"
	"strings"

	"wflint/internal/ast"
)

// ctxNode describes what may follow a context path segment.
// A node with no props, no any and not dynamic is a leaf.
type ctxNode struct {
	props   map[string]*ctxNode
	any     *ctxNode // arbitrary property names (jobs.<id>, services.<id>)
	dynamic bool     // everything below is accepted
}

func leaf() *ctxNode { return &ctxNode{} }

func dyn() *ctxNode { return &ctxNode{dynamic: true} }

func obj(props map[string]*ctxNode) *ctxNode { return &ctxNode{props: props} }

func anyOf(child *ctxNode) *ctxNode { return &ctxNode{any: child} }

func leaves(names ...string) map[string]*ctxNode {
	m := make(map[string]*ctxNode, len(names))
	for _, n := range names {
		m[n] = leaf()
	}
	return m
}

func with(m map[string]*ctxNode, name string, n *ctxNode) map[string]*ctxNode {
	m[name] = n
	return m
}

// child resolves one property; ok is false when name is not allowed.
func (n *ctxNode) child(name string) (*ctxNode, bool) {
	if n.dynamic {
		return n, true
	}
	if c, ok := n.props[name]; ok {
		return c, true
	}
	if n.any != nil {
		return n.any, true
	}
	return nil, false
}

// names lists the fixed properties for suggestions.
func (n *ctxNode) names() []string {
	out := make([]string, 0, len(n.props))
	for k := range n.props {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

var githubContext = obj(with(leaves(
	"action", "action_path", "action_ref", "action_repository", "action_status",
	"actor", "actor_id", "api_url", "base_ref", "env", "event_name", "event_path",
	"graphql_url", "head_ref", "job", "path", "ref", "ref_name", "ref_protected",
	"ref_type", "repository", "repository_id", "repository_owner",
	"repository_owner_id", "repositoryUrl", "retention_days", "run_attempt",
	"run_id", "run_number", "secret_source", "server_url", "sha", "token",
	"triggering_actor", "workflow", "workflow_ref", "workflow_sha", "workspace",
), "event", dyn()))

var runnerContext = obj(leaves("name", "os", "arch", "temp", "tool_cache", "debug", "environment"))

var strategyContext = obj(leaves("fail-fast", "job-index", "job-total", "max-parallel"))

var jobContext = obj(with(with(leaves("status"),
	"container", obj(leaves("id", "network"))),
	"services", anyOf(obj(with(leaves("id", "network"), "ports", dyn())))))

// jobs.<id> is only meaningful in reusable workflows' outputs.
var jobsContext = anyOf(obj(with(leaves("result"), "outputs", anyOf(leaf()))))

// stepsAndNeeds are validated by their own rules; the tree accepts anything.
var contextRoots = map[string]*ctxNode{
	"github":   githubContext,
	"env":      dyn(),
	"vars":     dyn(),
	"secrets":  dyn(),
	"inputs":   dyn(),
	"needs":    dyn(),
	"steps":    dyn(),
	"runner":   runnerContext,
	"strategy": strategyContext,
	"job":      jobContext,
	"jobs":     jobsContext,
}

// contextNames lists the valid roots, including matrix.
func contextNames() []string {
	out := make([]string, 0, len(contextRoots)+1)
	for k := range contextRoots {
		out = append(out, k)
	}
	out = append(out, "matrix")
	slices.Sort(out)
	return out
}

// matrixContext derives the matrix node from the job's strategy. Only a
// literal mapping without include yields a closed set of keys.
func matrixContext(j *ast.Job) *ctxNode {
	if j == nil {
		return dyn()
	}
	strategy, ok := entryValue(j.Body, "strategy").(*ast.Mapping)
	if !ok {
		return dyn()
	}
	m, ok := entryValue(strategy, "matrix").(*ast.Mapping)
	if !ok || m.Get("include") != nil {
		return dyn()
	}
	props := make(map[string]*ctxNode, m.Len())
	for _, e := range m.Entries {
		if e.Key.Value == "exclude" {
			continue
		}
		props[e.Key.Value] = dyn()
	}
	return obj(props)
}

func entryValue(m *ast.Mapping, key string) ast.Node {
	if e := m.Get(key); e != nil {
		return e.Value
	}
	return nil
}

var knownFunctions = []string{
	"contains", "startsWith", "endsWith", "format", "join", "toJSON",
	"fromJSON", "hashFiles", "success", "always", "cancelled", "failure", "case",
}

// canonicalFunction returns the declared spelling of a function name, which
// is matched case-insensitively.
func canonicalFunction(name string) (string, bool) {
	for _, f := range knownFunctions {
		if strings.EqualFold(f, name) {
			return f, true
		}
	}
	return "", false
}
