// Package partial repairs truncated JSON. A streaming model emits a JSON
// document token by token, so at almost every instant the accumulated text
// is an incomplete prefix. Complete turns such a prefix into a parseable
// document by closing open strings and containers and trimming fragments
// that cannot be closed (dangling keys, bare commas, half-written numbers).
package partial

import "strings"

type frameState int

const (
	expectValue frameState = iota
	afterValue
	expectKey
	afterKey
)

// Complete returns a syntactically valid completion of a JSON prefix, or
// ok=false when no usable completion exists yet (empty input, or text that
// does not open a JSON container). An unterminated string in value position
// is closed in place so partially streamed text survives; everything else
// incomplete is trimmed back to the last committable point.
func Complete(input string) (completed string, ok bool) {
	s := strings.TrimSpace(input)
	if s == "" || (s[0] != '[' && s[0] != '{') {
		return "", false
	}

	var stack []byte      // closing delimiters, innermost last
	var states []frameState

	inString := false
	stringIsValue := false
	escapeStart := -1 // start of a possibly unfinished escape sequence
	unicodeLeft := 0  // hex digits still owed to a \u escape

	good := 0 // byte length of the longest committable prefix
	goodClosers := ""

	closers := func() string {
		b := make([]byte, len(stack))
		for i := range stack {
			b[i] = stack[len(stack)-1-i]
		}
		return string(b)
	}
	markGood := func(end int) {
		good = end
		goodClosers = closers()
	}
	state := func() frameState {
		if len(states) == 0 {
			return afterValue
		}
		return states[len(states)-1]
	}
	setState := func(st frameState) {
		if len(states) > 0 {
			states[len(states)-1] = st
		}
	}

	i := 0
	for i < len(s) {
		c := s[i]

		if inString {
			switch {
			case unicodeLeft > 0:
				if !isHex(c) {
					return "", false // malformed, not merely truncated
				}
				unicodeLeft--
				if unicodeLeft == 0 {
					escapeStart = -1
				}
			case escapeStart >= 0 && escapeStart == i-1:
				if c == 'u' {
					unicodeLeft = 4
				} else {
					escapeStart = -1
				}
			case c == '\\':
				escapeStart = i
			case c == '"':
				inString = false
				if stringIsValue {
					setState(afterValue)
					markGood(i + 1)
				} else {
					setState(afterKey)
				}
			}
			i++
			continue
		}

		switch c {
		case ' ', '\t', '\n', '\r':
			i++
		case '{':
			stack = append(stack, '}')
			states = append(states, expectKey)
			markGood(i + 1)
			i++
		case '[':
			stack = append(stack, ']')
			states = append(states, expectValue)
			markGood(i + 1)
			i++
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return "", false
			}
			stack = stack[:len(stack)-1]
			states = states[:len(states)-1]
			setState(afterValue)
			markGood(i + 1)
			i++
			if len(stack) == 0 {
				return s[:i], true
			}
		case '"':
			inString = true
			stringIsValue = state() != expectKey
			escapeStart = -1
			i++
		case ':':
			setState(expectValue)
			i++
		case ',':
			if stack[len(stack)-1] == '}' {
				setState(expectKey)
			} else {
				setState(expectValue)
			}
			i++
		default:
			end := scanLiteral(s, i)
			if end < len(s) {
				// Delimited literal: complete number/true/false/null.
				setState(afterValue)
				markGood(end)
			}
			i = end
		}
	}

	if inString && stringIsValue {
		// Close the string in place, dropping a half-written escape.
		end := len(s)
		if escapeStart >= 0 {
			end = escapeStart
		}
		return s[:end] + `"` + closers(), true
	}

	if good == 0 {
		return "", false
	}
	return s[:good] + goodClosers, true
}

// scanLiteral advances past a number, true, false, or null token.
func scanLiteral(s string, start int) int {
	i := start
	for i < len(s) {
		switch s[i] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return i
		}
		i++
	}
	return i
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
