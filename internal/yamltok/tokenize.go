package yamltok

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"wflint/internal/diag"
	"wflint/internal/source"
)

// Result is the output of Tokenize.
type Result struct {
	Tokens []Token
	// Failed is set when the YAML parser rejected the input. Tokens then
	// hold only the documents that parsed before the failure.
	Failed bool
}

var errLineRe = regexp.MustCompile(`^yaml: line (\d+): (.*)$`)

// Tokenize parses file and flattens every document into tokens.
// Syntax errors are reported and never returned as Go errors.
func Tokenize(file *source.File, r diag.Reporter) Result {
	res := Result{Tokens: make([]Token, 0, 64)}
	if r == nil {
		r = diag.NopReporter
	}

	dec := yaml.NewDecoder(bytes.NewReader(file.Content))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			reportSyntax(file, err, r)
			res.Failed = true
			break
		}
		res.Tokens = append(res.Tokens, Token{
			Kind: KindBlockMarker,
			Pos:  nodePos(file, &doc),
		})
		for _, root := range doc.Content {
			res.Tokens = flatten(file, root, res.Tokens, r)
		}
	}
	return res
}

func reportSyntax(file *source.File, err error, r diag.Reporter) {
	msg := err.Error()
	span := source.Span{File: file.ID}
	if m := errLineRe.FindStringSubmatch(msg); m != nil {
		if line, convErr := strconv.Atoi(m[1]); convErr == nil && line > 0 {
			start := file.OffsetAt(line, 1)
			lineNo := file.PosAt(start).Line
			span = source.Span{File: file.ID, Start: start, End: file.LineEnd(lineNo)}
		}
		msg = m[2]
	} else {
		msg = strings.TrimPrefix(msg, "yaml: ")
	}
	diag.ReportError(r, diag.YamlSyntax, span, fmt.Sprintf("invalid YAML: %s", msg)).
		WithRule("syntax").
		Emit()
}

type frame struct {
	node    *yaml.Node
	closing bool
}

// flatten walks the node tree with an explicit stack.
func flatten(file *source.File, root *yaml.Node, out []Token, r diag.Reporter) []Token {
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := top.node
		flow := n.Style&yaml.FlowStyle != 0

		if top.closing {
			kind := KindMappingEnd
			if n.Kind == yaml.SequenceNode {
				kind = KindSequenceEnd
			}
			out = append(out, Token{Kind: kind, Pos: nodePos(file, n), Flow: flow})
			continue
		}

		switch n.Kind {
		case yaml.MappingNode, yaml.SequenceNode:
			kind := KindMappingStart
			if n.Kind == yaml.SequenceNode {
				kind = KindSequenceStart
			}
			out = append(out, Token{Kind: kind, Pos: nodePos(file, n), Tag: n.Tag, Flow: flow})
			stack = append(stack, frame{node: n, closing: true})
			for i := len(n.Content) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: n.Content[i]})
			}
		case yaml.ScalarNode:
			out = append(out, scalarToken(file, n))
		case yaml.AliasNode:
			tok := aliasToken(file, n)
			diag.ReportInfo(r, diag.YamlUnsupported, tok.Span(),
				fmt.Sprintf("alias %q is not expanded; its target is not validated", tok.Raw)).
				WithRule("syntax").
				Emit()
			out = append(out, tok)
		case yaml.DocumentNode:
			for i := len(n.Content) - 1; i >= 0; i-- {
				stack = append(stack, frame{node: n.Content[i]})
			}
		}
	}
	return out
}

func nodePos(file *source.File, n *yaml.Node) source.Pos {
	return file.PosAt(file.OffsetAt(n.Line, n.Column))
}

func scalarToken(file *source.File, n *yaml.Node) Token {
	start := file.OffsetAt(n.Line, n.Column)
	start = skipProperties(file.Content, start)

	style := StylePlain
	var rawStart, rawEnd uint32
	switch {
	case n.Style&yaml.SingleQuotedStyle != 0:
		style = StyleSingleQuoted
		rawStart, rawEnd = quotedBounds(file.Content, start, '\'')
	case n.Style&yaml.DoubleQuotedStyle != 0:
		style = StyleDoubleQuoted
		rawStart, rawEnd = quotedBounds(file.Content, start, '"')
	case n.Style&yaml.LiteralStyle != 0:
		style = StyleLiteral
		rawStart, rawEnd = blockBounds(file.Content, start)
	case n.Style&yaml.FoldedStyle != 0:
		style = StyleFolded
		rawStart, rawEnd = blockBounds(file.Content, start)
	default:
		rawStart, rawEnd = plainBounds(file.Content, start, n.Value)
	}

	return Token{
		Kind:  KindScalar,
		Pos:   file.PosAt(rawStart),
		Value: n.Value,
		Raw:   string(file.Content[rawStart:rawEnd]),
		Style: style,
		Tag:   n.ShortTag(),
	}
}

func aliasToken(file *source.File, n *yaml.Node) Token {
	start := file.OffsetAt(n.Line, n.Column)
	end := start
	if int(start) < len(file.Content) && file.Content[start] == '*' {
		end = scanWord(file.Content, start)
	}
	raw := string(file.Content[start:end])
	return Token{
		Kind:  KindScalar,
		Pos:   file.PosAt(start),
		Value: raw,
		Raw:   raw,
		Style: StyleAlias,
		Tag:   "!!str",
	}
}
