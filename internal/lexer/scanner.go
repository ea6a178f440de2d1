// Package lexer implements the heuristic lexical layer of the pipeline: a
// region-tracking scanner shared by markup detection and import rewriting.
// It is deliberately not a parser. It tracks just enough state (strings,
// comments, template literals with interpolation depth, escapes) to know
// whether a byte position is real code.
package lexer

// frame is one level of template-literal nesting. mode alternates between
// code and template text; braces tracks '{' depth inside a code frame so a
// '}' that closes an interpolation is distinguished from a block close.
type frame struct {
	template bool
	braces   int
}

// Tracker holds mutually exclusive region flags across a scan. The zero
// value starts in code. State persists across successive Scan calls, so a
// block comment or template literal opened in one chunk carries into the
// next.
type Tracker struct {
	stack    []frame
	inSingle bool
	inDouble bool
	inLine   bool
	inBlock  bool
	escaped  bool
}

func (t *Tracker) top() *frame {
	if len(t.stack) == 0 {
		t.stack = append(t.stack, frame{})
	}
	return &t.stack[len(t.stack)-1]
}

// InCode reports whether the tracker is currently outside every string,
// comment, and template-text region.
func (t *Tracker) InCode() bool {
	return !t.top().template && !t.inSingle && !t.inDouble && !t.inLine && !t.inBlock
}

// Scan walks src updating region state. At every position that lies in
// code, fn is invoked with the index; fn may return a larger index to
// consume a span (the consumed bytes are not region-tracked, so fn must
// only consume spans it fully understands, e.g. a complete import
// statement). A nil fn just advances state, which is how callers feed
// lines through the tracker.
func (t *Tracker) Scan(src []byte, fn func(i int) int) {
	n := len(src)
	for i := 0; i < n; {
		c := src[i]

		if t.escaped {
			t.escaped = false
			i++
			continue
		}

		switch {
		case t.inLine:
			if c == '\n' {
				t.inLine = false
			}
			i++

		case t.inBlock:
			if c == '*' && i+1 < n && src[i+1] == '/' {
				t.inBlock = false
				i += 2
			} else {
				i++
			}

		case t.inSingle:
			switch c {
			case '\\':
				t.escaped = true
			case '\'', '\n':
				t.inSingle = false
			}
			i++

		case t.inDouble:
			switch c {
			case '\\':
				t.escaped = true
			case '"', '\n':
				t.inDouble = false
			}
			i++

		case t.top().template:
			switch {
			case c == '\\':
				t.escaped = true
				i++
			case c == '`':
				t.pop()
				i++
			case c == '$' && i+1 < n && src[i+1] == '{':
				t.stack = append(t.stack, frame{})
				i += 2
			default:
				i++
			}

		default: // code
			switch {
			case c == '\'':
				t.inSingle = true
				i++
			case c == '"':
				t.inDouble = true
				i++
			case c == '`':
				t.stack = append(t.stack, frame{template: true})
				i++
			case c == '/' && i+1 < n && src[i+1] == '/':
				t.inLine = true
				i += 2
			case c == '/' && i+1 < n && src[i+1] == '*':
				t.inBlock = true
				i += 2
			case c == '{':
				t.top().braces++
				i++
			case c == '}':
				f := t.top()
				if f.braces > 0 {
					f.braces--
				} else if len(t.stack) > 1 {
					// closes an interpolation, back to template text
					t.pop()
				}
				i++
			default:
				if fn != nil {
					if next := fn(i); next > i {
						i = next
						continue
					}
				}
				i++
			}
		}
	}
}

// pop removes the top frame, keeping the bottom code frame in place.
func (t *Tracker) pop() {
	if len(t.stack) > 1 {
		t.stack = t.stack[:len(t.stack)-1]
		return
	}
	t.stack = t.stack[:0]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= '0' && c <= '9') || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isWordAt(src []byte, i int, word string) bool {
	if i+len(word) > len(src) {
		return false
	}
	for j := 0; j < len(word); j++ {
		if src[i+j] != word[j] {
			return false
		}
	}
	if i > 0 && isIdentByte(src[i-1]) {
		return false
	}
	end := i + len(word)
	return end >= len(src) || !isIdentByte(src[end])
}
