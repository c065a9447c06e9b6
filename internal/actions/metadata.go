package actions

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when neither action.yml nor action.yaml exists for a reference.
var ErrNotFound = errors.New("action metadata not found")

// Input is one declared action input.
type Input struct {
	Name       string `msgpack:"name"`
	Required   bool   `msgpack:"required"`
	HasDefault bool   `msgpack:"has_default"`
}

// Metadata is what rules need to know about an action.
type Metadata struct {
	Name    string   `msgpack:"name"`
	Inputs  []Input  `msgpack:"inputs"`  // in declaration order
	Outputs []string `msgpack:"outputs"` // in declaration order
	Tags    []string `msgpack:"tags"`    // newest first, may be empty
}

// Resolver looks up metadata for remote action references.
type Resolver interface {
	// Lookup returns ErrNotFound when the action has no metadata file.
	Lookup(ctx context.Context, ref Ref) (*Metadata, error)
}

// Input returns the declared input with the given name.
func (m *Metadata) Input(name string) (Input, bool) {
	if m == nil {
		return Input{}, false
	}
	for _, in := range m.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return Input{}, false
}

// HasOutput reports whether the action declares the output.
func (m *Metadata) HasOutput(name string) bool {
	return m != nil && slices.Contains(m.Outputs, name)
}

// InputNames lists input names in declaration order.
func (m *Metadata) InputNames() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.Inputs))
	for i, in := range m.Inputs {
		out[i] = in.Name
	}
	return out
}

// RequiredInputs lists inputs that must be passed: required and without a default.
func (m *Metadata) RequiredInputs() []string {
	if m == nil {
		return nil
	}
	var out []string
	for _, in := range m.Inputs {
		if in.Required && !in.HasDefault {
			out = append(out, in.Name)
		}
	}
	return out
}

// Latest returns the newest stable tag.
func (m *Metadata) Latest() (string, bool) {
	if m == nil {
		return "", false
	}
	return Latest(m.Tags)
}

type inputSpec struct {
	// required бывает и bool, и строкой "true"
	Required string     `yaml:"required"`
	Default  *yaml.Node `yaml:"default"`
}

// ParseActionYAML reads an action.yml document. Key order is kept.
func ParseActionYAML(data []byte) (*Metadata, error) {
	var doc struct {
		Name    string    `yaml:"name"`
		Inputs  yaml.Node `yaml:"inputs"`
		Outputs yaml.Node `yaml:"outputs"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse action metadata: %w", err)
	}
	meta := &Metadata{Name: doc.Name}
	if err := forEachKey(&doc.Inputs, func(name string, value *yaml.Node) error {
		in := Input{Name: name}
		if value.Kind == yaml.MappingNode {
			var spec inputSpec
			if err := value.Decode(&spec); err != nil {
				return fmt.Errorf("input %q: %w", name, err)
			}
			in.Required = strings.EqualFold(strings.TrimSpace(spec.Required), "true")
			in.HasDefault = spec.Default != nil
		}
		meta.Inputs = append(meta.Inputs, in)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("parse action metadata: %w", err)
	}
	if err := forEachKey(&doc.Outputs, func(name string, _ *yaml.Node) error {
		meta.Outputs = append(meta.Outputs, name)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("parse action metadata: %w", err)
	}
	return meta, nil
}

func forEachKey(n *yaml.Node, fn func(string, *yaml.Node) error) error {
	switch n.Kind {
	case 0:
		return nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(n.Content); i += 2 {
			if err := fn(n.Content[i].Value, n.Content[i+1]); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("line %d: expected a mapping", n.Line)
}
