package yamltok

import (
	"strconv"
	"strings"
)

// Unquote decodes the text between the quotes of a quoted scalar the way
// the YAML parser does and keeps track of where every decoded byte came
// from: offs[i] is the offset in raw of the byte that produced out[i], and
// offs has one extra entry equal to len(raw). Plain and block scalars are
// returned unchanged with a nil map.
func Unquote(raw string, style Style) (out string, offs []int) {
	if style != StyleSingleQuoted && style != StyleDoubleQuoted {
		return raw, nil
	}
	if !strings.ContainsAny(raw, "'\\\n\r") {
		return raw, nil
	}
	u := unquoter{raw: raw, double: style == StyleDoubleQuoted}
	u.run()
	u.offs = append(u.offs, len(raw))
	return u.buf.String(), u.offs
}

type unquoter struct {
	raw    string
	double bool
	buf    strings.Builder
	offs   []int
}

func (u *unquoter) emit(at int, s string) {
	u.buf.WriteString(s)
	for range len(s) {
		u.offs = append(u.offs, at)
	}
}

func (u *unquoter) run() {
	raw := u.raw
	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case !u.double && c == '\'' && i+1 < len(raw) && raw[i+1] == '\'':
			u.emit(i, "'")
			i += 2
		case u.double && c == '\\':
			i = u.escape(i)
		case isSpace(c):
			i = u.fold(i)
		default:
			u.emit(i, raw[i:i+1])
			i++
		}
	}
}

// fold handles a run of white space. Inside a line it is kept; a single
// line break becomes a space and n > 1 breaks become n-1 newlines, with
// the blanks around them dropped.
func (u *unquoter) fold(i int) int {
	raw := u.raw
	j := i
	for j < len(raw) && isBlank(raw[j]) {
		j++
	}
	if j == len(raw) || (raw[j] != '\n' && raw[j] != '\r') {
		u.emit(i, raw[i:j])
		return j
	}
	var breaks []int
	for j < len(raw) && (raw[j] == '\n' || raw[j] == '\r') {
		breaks = append(breaks, j)
		j = skipBreak(raw, j)
		for j < len(raw) && isBlank(raw[j]) {
			j++
		}
	}
	if len(breaks) == 1 {
		u.emit(breaks[0], " ")
		return j
	}
	for _, at := range breaks[1:] {
		u.emit(at, "\n")
	}
	return j
}

func skipBreak(raw string, j int) int {
	if raw[j] == '\r' && j+1 < len(raw) && raw[j+1] == '\n' {
		return j + 2
	}
	return j + 1
}

var simpleEscapes = map[byte]string{
	'0':  "\x00",
	'a':  "\a",
	'b':  "\b",
	't':  "\t",
	'\t': "\t",
	'n':  "\n",
	'v':  "\v",
	'f':  "\f",
	'r':  "\r",
	'e':  "\x1b",
	' ':  " ",
	'"':  "\"",
	'/':  "/",
	'\\': "\\",
	'N':  "\u0085",
	'_':  "\u00a0",
	'L':  "\u2028",
	'P':  "\u2029",
}

var hexEscapes = map[byte]int{'x': 2, 'u': 4, 'U': 8}

// escape decodes the backslash sequence at raw[i] and returns the offset
// after it. Malformed sequences are copied through.
func (u *unquoter) escape(i int) int {
	raw := u.raw
	if i+1 >= len(raw) {
		u.emit(i, raw[i:])
		return len(raw)
	}
	e := raw[i+1]
	if e == '\n' || e == '\r' {
		// escaped line break: the break and the next indentation vanish
		j := skipBreak(raw, i+1)
		for j < len(raw) && isBlank(raw[j]) {
			j++
		}
		return j
	}
	if s, ok := simpleEscapes[e]; ok {
		u.emit(i, s)
		return i + 2
	}
	if n, ok := hexEscapes[e]; ok && i+2+n <= len(raw) {
		if v, err := strconv.ParseUint(raw[i+2:i+2+n], 16, 32); err == nil {
			u.emit(i, string(rune(v)))
			return i + 2 + n
		}
	}
	u.emit(i, raw[i:i+1])
	return i + 1
}
