package yamltok

import (
	"bytes"
	"strings"
)

// The helpers below recover the exact byte range a scalar occupies.
// yaml.v3 reports where a node starts (anchor and tag included) but not
// where it ends, so each style is rescanned from its start offset.

func isBlank(c byte) bool {
	return c == ' ' || c == '\t'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func scanWord(content []byte, off uint32) uint32 {
	for int(off) < len(content) && !isSpace(content[off]) && content[off] != ',' {
		off++
	}
	return off
}

// skipProperties moves past "&anchor" and "!tag" prefixes. Neither
// indicator can start a plain scalar.
func skipProperties(content []byte, off uint32) uint32 {
	for int(off) < len(content) && (content[off] == '&' || content[off] == '!') {
		off = scanWord(content, off)
		for int(off) < len(content) && isSpace(content[off]) {
			off++
		}
	}
	return off
}

// plainBounds matches a plain scalar. Single-line values are a direct prefix
// of the source; multi-line values were folded by the parser, so their words
// are matched one by one across line breaks.
func plainBounds(content []byte, start uint32, value string) (uint32, uint32) {
	rest := content[start:]
	if bytes.HasPrefix(rest, []byte(value)) {
		return start, start + uint32(len(value)) // #nosec G115 -- bounded by file size
	}
	end := start
	pos := start
	for _, word := range strings.Fields(value) {
		for int(pos) < len(content) && isSpace(content[pos]) {
			pos++
		}
		if !bytes.HasPrefix(content[pos:], []byte(word)) {
			break
		}
		pos += uint32(len(word)) // #nosec G115
		end = pos
	}
	return start, end
}

// quotedBounds returns the range between the quotes. A missing closing quote
// extends the range to the end of the content.
func quotedBounds(content []byte, start uint32, quote byte) (uint32, uint32) {
	if int(start) >= len(content) || content[start] != quote {
		return start, start
	}
	i := start + 1
	for int(i) < len(content) {
		c := content[i]
		switch {
		case quote == '"' && c == '\\':
			i += 2
			continue
		case c == quote && quote == '\'' && int(i+1) < len(content) && content[i+1] == '\'':
			i += 2
			continue
		case c == quote:
			return start + 1, i
		}
		i++
	}
	end := uint32(len(content)) // #nosec G115
	return start + 1, end
}

// blockBounds covers the content lines of a literal or folded block scalar:
// from the first non-blank content line to the end of the last non-blank one.
func blockBounds(content []byte, start uint32) (uint32, uint32) {
	size := uint32(len(content)) // #nosec G115
	// header: indicator, chomping/indent flags, optional comment
	i := start
	for i < size && content[i] != '\n' {
		i++
	}
	if i >= size {
		return size, size
	}
	bodyStart := i + 1

	indent := -1
	first, last := uint32(0), uint32(0)
	found := false
	lineStart := bodyStart
	for lineStart < size {
		lineEnd := lineStart
		for lineEnd < size && content[lineEnd] != '\n' {
			lineEnd++
		}
		textEnd := lineEnd
		if textEnd > lineStart && content[textEnd-1] == '\r' {
			textEnd--
		}
		lead := uint32(0)
		for lineStart+lead < textEnd && content[lineStart+lead] == ' ' {
			lead++
		}
		blankLine := true
		for j := lineStart + lead; j < textEnd; j++ {
			if !isBlank(content[j]) {
				blankLine = false
				break
			}
		}
		if !blankLine {
			if indent < 0 {
				indent = int(lead)
				if indent == 0 {
					// a zero-indented block at top level is empty
					break
				}
				first = lineStart + lead
			} else if int(lead) < indent {
				break
			}
			last = textEnd
			found = true
		}
		lineStart = lineEnd + 1
	}
	if !found {
		return bodyStart, bodyStart
	}
	return first, last
}
