package transpile

import (
	"strings"

	"github.com/axisframe/axis/internal/graph"
)

const (
	DirectiveClient = "use client"
	DirectiveServer = "use server"
)

// stripDirectives removes leading framework directives from src and
// returns the stripped source plus the directives found. Directives are
// bare string-literal statements before any other code; comments and
// blank lines may precede them.
func stripDirectives(src []byte) ([]byte, []string) {
	var directives []string
	rest := src
	for {
		trimmed, directive, ok := leadingDirective(rest)
		if !ok {
			break
		}
		directives = append(directives, directive)
		rest = trimmed
	}
	if len(directives) == 0 {
		return src, nil
	}
	return rest, directives
}

// leadingDirective consumes one directive statement at the top of src,
// skipping whitespace and comments, and returns the remainder.
func leadingDirective(src []byte) ([]byte, string, bool) {
	i := skipTrivia(src, 0)
	if i >= len(src) {
		return nil, "", false
	}
	quote := src[i]
	if quote != '"' && quote != '\'' {
		return nil, "", false
	}
	end := i + 1
	for end < len(src) && src[end] != quote && src[end] != '\n' {
		end++
	}
	if end >= len(src) || src[end] != quote {
		return nil, "", false
	}
	directive := string(src[i+1 : end])
	if directive != DirectiveClient && directive != DirectiveServer {
		return nil, "", false
	}
	end++
	for end < len(src) && (src[end] == ';' || src[end] == ' ' || src[end] == '\t' || src[end] == '\r') {
		end++
	}
	if end < len(src) && src[end] == '\n' {
		end++
	}
	return src[end:], directive, true
}

func skipTrivia(src []byte, i int) int {
	for i < len(src) {
		switch {
		case src[i] == ' ' || src[i] == '\t' || src[i] == '\n' || src[i] == '\r':
			i++
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case src[i] == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i+1 < len(src) && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}
			i += 2
		default:
			return i
		}
	}
	return i
}

// validateDirectives reports an error message for directives that make
// the file unservable to browsers. Files on documentation paths are
// exempt.
func validateDirectives(path string, directives []string) string {
	if graph.IsDocumentationPath(path) {
		return ""
	}
	if hasDirective(directives, DirectiveServer) {
		return "file is marked \"" + DirectiveServer + "\" and cannot be served to the browser"
	}
	return ""
}

// hasDirective reports whether the list contains the named directive.
func hasDirective(directives []string, name string) bool {
	for _, d := range directives {
		if strings.EqualFold(d, name) {
			return true
		}
	}
	return false
}
