// Package resolve classifies import specifiers and rewrites them into
// absolute URLs the dev server can serve. Classification is a total, pure
// function over non-empty specifier strings; rewriting is deterministic per
// category. Neither performs I/O; entry-candidate existence probing happens
// at serve time in the package handler.
package resolve

import "strings"

// Kind is the category of an import specifier.
type Kind int

const (
	KindStylesheet Kind = iota
	KindFramework
	KindRelative
	KindAbsolute
	KindScoped
	KindBare
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindStylesheet:
		return "stylesheet"
	case KindFramework:
		return "framework"
	case KindRelative:
		return "relative"
	case KindAbsolute:
		return "absolute"
	case KindScoped:
		return "scoped"
	case KindBare:
		return "bare"
	default:
		return "unknown"
	}
}

// FrameworkNamespace is the import namespace reserved for the framework
// itself.
const FrameworkNamespace = "@axis"

// stylesheetSuffixes are the extensions recognized as stylesheet imports.
var stylesheetSuffixes = []string{".css", ".scss", ".sass", ".less"}

// styleSubmoduleSuffix marks stylesheet-only package submodules such as
// "@acme/ui/styles".
const styleSubmoduleSuffix = "/styles"

// Classify maps a specifier to exactly one Kind. Precedence: stylesheet
// suffix, framework namespace, relative, absolute, scoped, bare. Empty or
// degenerate inputs never panic; the empty string classifies as bare.
func Classify(spec string) Kind {
	if IsStylesheetSpecifier(spec) {
		return KindStylesheet
	}
	if spec == FrameworkNamespace || strings.HasPrefix(spec, FrameworkNamespace+"/") {
		return KindFramework
	}
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") || spec == "." || spec == ".." {
		return KindRelative
	}
	if strings.HasPrefix(spec, "/") {
		return KindAbsolute
	}
	if strings.HasPrefix(spec, "@") {
		return KindScoped
	}
	return KindBare
}

// IsStylesheetSpecifier reports whether a specifier names a stylesheet,
// either by extension or by a stylesheet-only package submodule.
func IsStylesheetSpecifier(spec string) bool {
	for _, suffix := range stylesheetSuffixes {
		if strings.HasSuffix(spec, suffix) {
			return true
		}
	}
	// "pkg/styles" style submodules, but not a top-level "styles" package
	// and not the framework namespace.
	if strings.HasSuffix(spec, styleSubmoduleSuffix) && len(spec) > len(styleSubmoduleSuffix) {
		return true
	}
	return false
}
