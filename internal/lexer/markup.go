package lexer

// ContainsMarkup reports whether src contains embedded markup syntax at
// code level. A '<' that opens a tag name, a closing tag, or a fragment
// marker counts, unless the immediately preceding character is one of
// '=', '<', '>', '!' (comparison, shift, generic-like operators). Tags
// inside strings, comments, and template text never match. False negatives
// are tolerated by the pipeline; false positives are not, so the check is
// conservative.
func ContainsMarkup(src []byte) bool {
	found := false
	t := &Tracker{}
	t.Scan(src, func(i int) int {
		if found || src[i] != '<' {
			return i
		}
		if i > 0 {
			switch src[i-1] {
			case '=', '<', '>', '!':
				return i
			}
		}
		if markupAt(src, i) {
			found = true
			return len(src)
		}
		return i
	})
	return found
}

// markupAt reports whether the '<' at src[i] opens tag-like syntax:
// "<Name", "</Name>", "</>", or the fragment marker "<>".
func markupAt(src []byte, i int) bool {
	n := len(src)
	j := i + 1
	if j >= n {
		return false
	}

	// fragment "<>" and close "</...>"
	if src[j] == '>' {
		return true
	}
	if src[j] == '/' {
		j++
		if j < n && (src[j] == '>' || isTagStart(src[j])) {
			return true
		}
		return false
	}

	if !isTagStart(src[j]) {
		return false
	}
	j++
	for j < n && isTagNameByte(src[j]) {
		j++
	}
	if j >= n {
		return false
	}
	switch src[j] {
	case ' ', '\t', '\n', '\r', '/', '>':
		return true
	}
	return false
}

func isTagStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isTagNameByte(c byte) bool {
	return isTagStart(c) || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == '.'
}
