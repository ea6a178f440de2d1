package resolve

import (
	"path"
	"strings"
)

// AssetKind is what a resolved import ultimately loads as.
type AssetKind int

const (
	AssetJS AssetKind = iota
	AssetCSS
	AssetOther
)

// Resolution is the outcome of rewriting one import specifier.
type Resolution struct {
	Original string
	Resolved string // browser URL; empty when the import is dropped
	Asset    AssetKind
	Package  string // package name for scoped/bare specifiers
	// External marks host-provided packages that pass through unmodified
	// because the hosting page supplies them as runtime globals.
	External bool
	// Dropped marks specifiers removed from script imports entirely
	// (stylesheets are side-loaded by the HTML generator instead).
	Dropped bool
}

// Buckets are the recognized top-level source directories. Relative and
// absolute rewrites rebase resolved paths at the first bucket found, in
// this order.
var Buckets = []string{"components", "lib", "app", "src"}

// runtimePrefixes are URL prefixes already owned by the dev server;
// absolute specifiers under them pass through unchanged.
var runtimePrefixes = []string{
	"/axis/", "/node_modules/", "/__deps/", "/bundle.js",
	"/components/", "/lib/", "/app/", "/src/",
}

// frameworkSubmodules maps known framework submodules to canonical URLs.
var frameworkSubmodules = map[string]string{
	"runtime": "/axis/runtime.js",
	"hooks":   "/axis/hooks.js",
	"router":  "/axis/router.js",
	"head":    "/axis/head.js",
	"link":    "/axis/link.js",
	"client":  "/axis/client.js",
}

// EntryCandidates are conventional browser entry points for a package,
// probed in order at serve time. The rewrite emits the first candidate;
// the package handler falls through to later ones.
var EntryCandidates = []string{
	"dist/index.js",
	"lib/index.js",
	"build/index.js",
	"index.js",
	"browser.js",
	"esm/index.js",
}

// hostProvided packages are supplied by the hosting page as runtime
// globals and must not be rewritten.
var hostProvided = map[string]bool{
	"react":             true,
	"react-dom":         true,
	"react/jsx-runtime": true,
}

// sourceSuffixes are authoring-time extensions that are always downgraded
// to plain .js in emitted URLs.
var sourceSuffixes = []string{".tsx", ".ts", ".jsx", ".mjs"}

// Rewrite converts a specifier into a Resolution relative to the file that
// imports it. fromPath is the project-relative path of the requesting file
// (e.g. "/app/blog/page.tsx"). Total: every input yields a Resolution.
func Rewrite(spec string, fromPath string) Resolution {
	switch Classify(spec) {
	case KindStylesheet:
		return rewriteStylesheet(spec, fromPath)
	case KindFramework:
		return rewriteFramework(spec)
	case KindRelative:
		return rewriteRelative(spec, fromPath)
	case KindAbsolute:
		return rewriteAbsolute(spec)
	case KindScoped:
		return rewritePackage(spec, true)
	default:
		return rewritePackage(spec, false)
	}
}

func rewriteStylesheet(spec string, fromPath string) Resolution {
	resolved := spec
	switch {
	case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
		resolved = rebase(path.Join(path.Dir(fromPath), spec))
	case strings.HasPrefix(spec, "/"):
		resolved = rebase(spec)
	default:
		// Package stylesheet: served from node_modules.
		resolved = "/node_modules/" + spec
	}
	return Resolution{
		Original: spec,
		Resolved: InferExtension(resolved),
		Asset:    AssetCSS,
		Package:  packageName(spec),
		Dropped:  true,
	}
}

func rewriteFramework(spec string) Resolution {
	sub := strings.TrimPrefix(spec, FrameworkNamespace)
	sub = strings.TrimPrefix(sub, "/")
	if sub == "" {
		sub = "runtime"
	}
	resolved, ok := frameworkSubmodules[sub]
	if !ok {
		resolved = "/axis/" + sub + ".js"
	}
	return Resolution{Original: spec, Resolved: resolved, Asset: AssetJS}
}

func rewriteRelative(spec string, fromPath string) Resolution {
	joined := path.Join(path.Dir(fromPath), spec)
	return Resolution{
		Original: spec,
		Resolved: InferExtension(rebase(joined)),
		Asset:    AssetJS,
	}
}

func rewriteAbsolute(spec string) Resolution {
	for _, prefix := range runtimePrefixes {
		if strings.HasPrefix(spec, prefix) {
			return Resolution{Original: spec, Resolved: InferExtension(spec), Asset: AssetJS}
		}
	}
	return Resolution{
		Original: spec,
		Resolved: InferExtension(rebase(spec)),
		Asset:    AssetJS,
	}
}

func rewritePackage(spec string, scoped bool) Resolution {
	if hostProvided[spec] {
		return Resolution{Original: spec, Resolved: spec, Asset: AssetJS, Package: spec, External: true}
	}

	pkg, sub := splitPackage(spec, scoped)
	if pkg == "" {
		// Degenerate input ("@", "@scope/"): emit the raw specifier under
		// node_modules rather than failing; the handler will 404.
		return Resolution{
			Original: spec,
			Resolved: "/node_modules/" + strings.Trim(spec, "/"),
			Asset:    AssetJS,
			Package:  spec,
		}
	}

	if sub == "" {
		return Resolution{
			Original: spec,
			Resolved: "/node_modules/" + pkg + "/" + EntryCandidates[0],
			Asset:    AssetJS,
			Package:  pkg,
		}
	}

	return Resolution{
		Original: spec,
		Resolved: InferExtension("/node_modules/" + pkg + "/" + sub),
		Asset:    AssetJS,
		Package:  pkg,
	}
}

// splitPackage splits a specifier into package name and submodule path.
// Scoped names keep their first two segments ("@scope/name").
func splitPackage(spec string, scoped bool) (pkg, sub string) {
	parts := strings.Split(strings.Trim(spec, "/"), "/")
	nameSegments := 1
	if scoped {
		nameSegments = 2
	}
	if len(parts) < nameSegments || parts[0] == "" || parts[0] == "@" {
		return "", ""
	}
	if scoped && (len(parts) < 2 || parts[1] == "") {
		return "", ""
	}
	pkg = strings.Join(parts[:nameSegments], "/")
	sub = strings.Join(parts[nameSegments:], "/")
	return pkg, sub
}

func packageName(spec string) string {
	if !strings.HasPrefix(spec, "@") && !isBareLike(spec) {
		return ""
	}
	pkg, _ := splitPackage(spec, strings.HasPrefix(spec, "@"))
	return pkg
}

func isBareLike(spec string) bool {
	return spec != "" && !strings.HasPrefix(spec, ".") && !strings.HasPrefix(spec, "/")
}

// rebase renormalizes a resolved project path by locating the first
// recognized bucket and anchoring the URL there. Buckets are tried in
// priority order, so "/app/components/Foo" rebases at "components", not at
// "app". Paths containing no bucket are rooted as-is.
func rebase(p string) string {
	p = "/" + strings.TrimPrefix(path.Clean(p), "/")
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for _, bucket := range Buckets {
		for i, seg := range segments {
			if seg == bucket {
				return "/" + strings.Join(segments[i:], "/")
			}
		}
	}
	return p
}

// InferExtension completes a URL's extension: source-type suffixes are
// downgraded to .js, style-suggesting paths get .css, everything else
// defaults to .js. Already-suffixed paths are otherwise left alone.
func InferExtension(p string) string {
	for _, suffix := range sourceSuffixes {
		if strings.HasSuffix(p, suffix) {
			return strings.TrimSuffix(p, suffix) + ".js"
		}
	}
	if path.Ext(p) != "" {
		return p
	}
	base := path.Base(p)
	if base == "styles" || base == "style" {
		return p + ".css"
	}
	return p + ".js"
}
