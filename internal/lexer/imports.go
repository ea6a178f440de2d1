package lexer

import "bytes"

// Import is one import or re-export found at code level, with byte spans
// for splicing: Start/End delimit the specifier text inside its quotes,
// StmtStart/StmtEnd the whole statement including a trailing semicolon.
type Import struct {
	Specifier  string
	Start, End int
	StmtStart  int
	StmtEnd    int
	Line       int
	Dynamic    bool
	SideEffect bool
}

// ExtractImports scans src and returns every import declaration, dynamic
// import call, and re-export with a module specifier, in source order.
// Specifier-looking text inside strings, comments, and template regions is
// skipped by the region tracker; rendered documentation and code samples
// are therefore never extracted.
func ExtractImports(src []byte) []Import {
	var imports []Import
	t := &Tracker{}

	t.Scan(src, func(i int) int {
		switch src[i] {
		case 'i':
			if isWordAt(src, i, "import") {
				if imp, next, ok := parseImport(src, i); ok {
					imp.Line = lineAt(src, imp.StmtStart)
					imports = append(imports, imp)
					return next
				}
			}
		case 'e':
			if isWordAt(src, i, "export") {
				if imp, next, ok := parseReexport(src, i); ok {
					imp.Line = lineAt(src, imp.StmtStart)
					imports = append(imports, imp)
					return next
				}
			}
		}
		return i
	})

	return imports
}

// parseImport handles `import "m"`, `import x from "m"`, `import {a} from
// "m"`, `import * as x from "m"`, and dynamic `import("m")` starting at
// the 'i' of the keyword.
func parseImport(src []byte, start int) (Import, int, bool) {
	n := len(src)
	i := skipWS(src, start+len("import"))
	if i >= n {
		return Import{}, 0, false
	}

	// dynamic import("m")
	if src[i] == '(' {
		spec, specStart, specEnd, after, ok := parenString(src, i)
		if !ok {
			return Import{}, 0, false
		}
		return Import{
			Specifier: spec,
			Start:     specStart,
			End:       specEnd,
			StmtStart: start,
			StmtEnd:   after,
			Dynamic:   true,
		}, after, true
	}

	// side-effect import "m"
	if src[i] == '"' || src[i] == '\'' {
		spec, specEnd, ok := stringLiteral(src, i)
		if !ok {
			return Import{}, 0, false
		}
		end := skipSemicolon(src, specEnd+1)
		return Import{
			Specifier:  spec,
			Start:      i + 1,
			End:        specEnd,
			StmtStart:  start,
			StmtEnd:    end,
			SideEffect: true,
		}, end, true
	}

	// `import.meta` and similar member accesses are not declarations.
	if src[i] == '.' {
		return Import{}, 0, false
	}

	// import <clause> from "m"
	return clauseFrom(src, start, i)
}

// parseReexport handles `export ... from "m"` starting at the 'e' of the
// keyword. Local exports without a `from` clause are not imports and are
// left untouched.
func parseReexport(src []byte, start int) (Import, int, bool) {
	n := len(src)
	i := skipWS(src, start+len("export"))
	if i >= n || (src[i] != '{' && src[i] != '*') {
		return Import{}, 0, false
	}
	return clauseFrom(src, start, i)
}

// clauseFrom scans past an import/export clause looking for `from "m"`.
// The scan stays inside one statement: it gives up at a semicolon or at
// another declaration keyword so a missing `from` cannot swallow the rest
// of the file.
func clauseFrom(src []byte, stmtStart, i int) (Import, int, bool) {
	n := len(src)
	braces := 0
	for i < n {
		c := src[i]
		switch {
		case c == '{':
			braces++
			i++
		case c == '}':
			braces--
			i++
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2
		case c == ';':
			return Import{}, 0, false
		case braces == 0 && isWordAt(src, i, "from"):
			i = skipWS(src, i+len("from"))
			if i >= n || (src[i] != '"' && src[i] != '\'') {
				return Import{}, 0, false
			}
			spec, specEnd, ok := stringLiteral(src, i)
			if !ok {
				return Import{}, 0, false
			}
			end := skipSemicolon(src, specEnd+1)
			return Import{
				Specifier: spec,
				Start:     i + 1,
				End:       specEnd,
				StmtStart: stmtStart,
				StmtEnd:   end,
			}, end, true
		case braces == 0 && (isWordAt(src, i, "import") || isWordAt(src, i, "export") || isWordAt(src, i, "const") || isWordAt(src, i, "function") || isWordAt(src, i, "class")):
			return Import{}, 0, false
		default:
			i++
		}
	}
	return Import{}, 0, false
}

// stringLiteral reads the quoted literal starting at src[i] and returns
// its contents and the index of the closing quote.
func stringLiteral(src []byte, i int) (string, int, bool) {
	quote := src[i]
	j := i + 1
	for j < len(src) && src[j] != quote && src[j] != '\n' {
		j++
	}
	if j >= len(src) || src[j] != quote {
		return "", 0, false
	}
	return string(src[i+1 : j]), j, true
}

// parenString finds the single string-literal argument of a call starting
// at the '(' and returns the specifier, its span, and the index just past
// the closing paren.
func parenString(src []byte, i int) (spec string, start, end, after int, ok bool) {
	n := len(src)
	depth := 0
	for ; i < n; i++ {
		c := src[i]
		if c == '(' {
			depth++
			continue
		}
		if c == ')' {
			depth--
			if depth == 0 {
				if spec == "" {
					return "", 0, 0, 0, false
				}
				return spec, start, end, skipSemicolon(src, i+1), true
			}
			continue
		}
		if (c == '"' || c == '\'') && spec == "" {
			s, closeIdx, got := stringLiteral(src, i)
			if !got {
				return "", 0, 0, 0, false
			}
			spec, start, end = s, i+1, closeIdx
			i = closeIdx
		}
	}
	return "", 0, 0, 0, false
}

func skipWS(src []byte, i int) int {
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r') {
		i++
	}
	return i
}

// skipSemicolon consumes horizontal whitespace and an optional semicolon.
func skipSemicolon(src []byte, i int) int {
	j := i
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < len(src) && src[j] == ';' {
		return j + 1
	}
	return i
}

func lineAt(src []byte, idx int) int {
	if idx > len(src) {
		idx = len(src)
	}
	return 1 + bytes.Count(src[:idx], []byte{'\n'})
}
