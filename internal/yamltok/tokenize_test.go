package yamltok

import (
	"strings"
	"testing"

	"wflint/internal/diag"
	"wflint/internal/source"
)

func tokenize(t *testing.T, src string) (*source.File, Result, []*diag.Diagnostic) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("ci.yml", []byte(src))
	file := fs.Get(id)
	rep := &diag.SliceReporter{}
	res := Tokenize(file, rep)
	return file, res, rep.Items
}

func scalars(tokens []Token) []Token {
	var out []Token
	for _, tok := range tokens {
		if tok.Kind == KindScalar {
			out = append(out, tok)
		}
	}
	return out
}

func TestTokenizeShape(t *testing.T) {
	src := "name: ci\njobs:\n  build:\n    steps:\n      - run: make\n"
	_, res, diags := tokenize(t, src)
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	want := []Kind{
		KindBlockMarker,
		KindMappingStart,
		KindScalar, KindScalar, // name: ci
		KindScalar, // jobs
		KindMappingStart,
		KindScalar, // build
		KindMappingStart,
		KindScalar, // steps
		KindSequenceStart,
		KindMappingStart,
		KindScalar, KindScalar, // run: make
		KindMappingEnd,
		KindSequenceEnd,
		KindMappingEnd,
		KindMappingEnd,
		KindMappingEnd,
	}
	if len(res.Tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(res.Tokens), len(want), res.Tokens)
	}
	for i, tok := range res.Tokens {
		if tok.Kind != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, tok.Kind, want[i])
		}
	}
}

func TestScalarRawRoundTrip(t *testing.T) {
	src := strings.Join([]string{
		"name: 'it''s ${{ github.ref }}'",
		"run-name: \"quoted \\\" ${{ inputs.x }}\"",
		"env:",
		"  PLAIN: value with ${{ env.A }} inside",
		"  MULTI: first line",
		"    second ${{ matrix.os }}",
		"  anchored: &a anchored-value",
		"  tagged: !!str 42",
		"  ünï: ключ",
		"jobs:",
		"  build:",
		"    steps:",
		"      - run: |",
		"          echo ${{ steps.a.outputs.b }}",
		"",
		"          echo done",
		"      - run: >-",
		"          folded",
		"          text",
		"      - run: [a, 'b', \"c\"]",
		"",
	}, "\n")
	file, res, _ := tokenize(t, src)
	if res.Failed {
		t.Fatal("tokenize failed")
	}
	for _, tok := range scalars(res.Tokens) {
		off := tok.Pos.Offset
		got := string(file.Content[off : off+uint32(len(tok.Raw))])
		if got != tok.Raw {
			t.Errorf("raw mismatch for %q: source has %q", tok.Raw, got)
		}
		lc := file.PosAt(off)
		if lc.Line != tok.Pos.Line || lc.Col != tok.Pos.Col {
			t.Errorf("pos mismatch for %q: %+v vs %+v", tok.Raw, tok.Pos, lc)
		}
	}

	byValue := map[string]Token{}
	for _, tok := range scalars(res.Tokens) {
		byValue[tok.Value] = tok
	}
	cases := []struct {
		value string
		raw   string
		style Style
	}{
		{"it's ${{ github.ref }}", "it''s ${{ github.ref }}", StyleSingleQuoted},
		{"quoted \" ${{ inputs.x }}", "quoted \\\" ${{ inputs.x }}", StyleDoubleQuoted},
		{"value with ${{ env.A }} inside", "value with ${{ env.A }} inside", StylePlain},
		{"first line second ${{ matrix.os }}", "first line\n    second ${{ matrix.os }}", StylePlain},
		{"anchored-value", "anchored-value", StylePlain},
		{"42", "42", StylePlain},
		{"ключ", "ключ", StylePlain},
		{"echo ${{ steps.a.outputs.b }}\n\necho done\n", "echo ${{ steps.a.outputs.b }}\n\n          echo done", StyleLiteral},
		{"folded text", "folded\n          text", StyleFolded},
		{"b", "b", StyleSingleQuoted},
		{"c", "c", StyleDoubleQuoted},
	}
	for _, tc := range cases {
		tok, ok := byValue[tc.value]
		if !ok {
			t.Errorf("no scalar with value %q", tc.value)
			continue
		}
		if tok.Raw != tc.raw {
			t.Errorf("value %q: raw %q, want %q", tc.value, tok.Raw, tc.raw)
		}
		if tok.Style != tc.style {
			t.Errorf("value %q: style %s, want %s", tc.value, tok.Style, tc.style)
		}
	}
}

func TestNonASCIIColumnsAreBytes(t *testing.T) {
	src := "ünï: x\n"
	_, res, _ := tokenize(t, src)
	sc := scalars(res.Tokens)
	if len(sc) != 2 {
		t.Fatalf("want 2 scalars, got %d", len(sc))
	}
	// "ünï: " is 7 bytes
	if sc[1].Pos.Offset != 7 || sc[1].Pos.Col != 8 {
		t.Fatalf("unexpected value pos %+v", sc[1].Pos)
	}
}

func TestSyntaxErrorIsReported(t *testing.T) {
	src := "jobs:\n  build:\n    steps: [a, b\n  test: {}\n"
	_, res, diags := tokenize(t, src)
	if !res.Failed {
		t.Fatal("expected failure")
	}
	if len(diags) != 1 {
		t.Fatalf("want 1 diagnostic, got %d", len(diags))
	}
	d := diags[0]
	if d.Code != diag.YamlSyntax || d.Severity != diag.SevError {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if !strings.HasPrefix(d.Message, "invalid YAML: ") {
		t.Fatalf("unexpected message %q", d.Message)
	}
}

func TestMultipleDocuments(t *testing.T) {
	src := "a: 1\n---\nb: 2\n"
	_, res, _ := tokenize(t, src)
	markers := 0
	for _, tok := range res.Tokens {
		if tok.Kind == KindBlockMarker {
			markers++
		}
	}
	if markers != 2 {
		t.Fatalf("want 2 documents, got %d", markers)
	}
}

func TestEmptyInput(t *testing.T) {
	_, res, diags := tokenize(t, "")
	if res.Failed || len(res.Tokens) != 0 || len(diags) != 0 {
		t.Fatalf("unexpected result %+v %v", res, diags)
	}
}

func TestNullScalar(t *testing.T) {
	_, res, _ := tokenize(t, "on:\n  push:\n")
	sc := scalars(res.Tokens)
	if len(sc) != 3 {
		t.Fatalf("want 3 scalars, got %d", len(sc))
	}
	if !sc[2].IsNull() || sc[2].Raw != "" {
		t.Fatalf("expected empty null scalar, got %+v", sc[2])
	}
}

func TestAliasIsKeptAsScalar(t *testing.T) {
	src := "a: &x foo\nb: *x\n"
	_, res, diags := tokenize(t, src)
	sc := scalars(res.Tokens)
	last := sc[len(sc)-1]
	if last.Style != StyleAlias || last.Raw != "*x" {
		t.Fatalf("unexpected alias token %+v", last)
	}
	if len(diags) != 1 || diags[0].Severity != diag.SevInfo {
		t.Fatalf("expected one info diagnostic, got %v", diags)
	}
}
