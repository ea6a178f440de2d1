package transpile

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/errors"
	"github.com/axisframe/axis/internal/lexer"
	"github.com/axisframe/axis/internal/logging"
	"github.com/axisframe/axis/internal/resolve"
)

// runtimePreamble is injected ahead of markup-bearing modules so the
// lowered jsx/Fragment calls resolve against the framework runtime.
const runtimePreamble = "import { jsx, jsxs, Fragment } from \"/axis/runtime.js\";\n"

// markupExtensions contribute the file-extension signal to markup
// confidence. A .tsx/.jsx file compiles with the markup loader even when
// the detector finds nothing, so an empty component still gets the
// automatic runtime.
var markupExtensions = map[string]bool{".tsx": true, ".jsx": true}

// Pipeline is the per-file transpilation state machine. One Pipeline
// serves all requests; identical in-flight requests are collapsed so a
// burst of tabs hitting the same changed file triggers one compile.
type Pipeline struct {
	compiler  Compiler
	cache     *cache.Store[Result]
	collector *errors.Collector
	logger    logging.Logger
	mode      Mode
	group     singleflight.Group
}

// NewPipeline wires a pipeline from its dependencies. All are required;
// pass logging.Discard() and a fresh collector in tests.
func NewPipeline(compiler Compiler, store *cache.Store[Result], collector *errors.Collector, logger logging.Logger, mode Mode) *Pipeline {
	return &Pipeline{
		compiler:  compiler,
		cache:     store,
		collector: collector,
		logger:    logger.WithComponent("pipeline"),
		mode:      mode,
	}
}

// Transpile runs a request through the pipeline, serving from cache when
// the validity token still matches. A compile failure returns a Result
// carrying a fallback module and the parsed diagnostics, not an error;
// the error return is reserved for context cancellation.
func (p *Pipeline) Transpile(ctx context.Context, req Request) (Result, error) {
	key := cache.Key(req.Path)
	if cached, ok := p.cache.Get(key, req.Token); ok {
		cached.Metadata.CacheHit = true
		return cached, nil
	}

	v, err, _ := p.group.Do(req.Key(), func() (interface{}, error) {
		res := p.run(ctx, req)
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		p.cache.Put(key, res, req.Token)
		return res, nil
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// Invalidate drops the cached result for a project path. Called by the
// watcher before clients are told to reload, so the next fetch can never
// observe stale output.
func (p *Pipeline) Invalidate(projectPath string) {
	p.cache.Invalidate(cache.Key(projectPath))
}

func (p *Pipeline) run(ctx context.Context, req Request) Result {
	started := time.Now()
	res := Result{Path: req.Path}
	res.Metadata.Stage = StageInit

	// DIRECTIVES
	res.Metadata.Stage = StageDirectives
	src, directives := stripDirectives(req.Source)
	res.Metadata.HasDirectives = len(directives) > 0
	res.Metadata.Directives = directives
	if msg := validateDirectives(req.Path, directives); msg != "" {
		return p.fail(req, res, started, errors.TranspileError{
			File:     req.Path,
			Message:  msg,
			Severity: errors.SeverityError,
		})
	}

	// MARKUP_ANALYSIS
	res.Metadata.Stage = StageMarkupAnalysis
	res.Metadata.HasMarkup = markupConfidence(req.Path, src)

	// IMPORT_REWRITE
	res.Metadata.Stage = StageImportRewrite
	src, res.Metadata.Imports = p.rewriteImports(req.Path, src)

	// SYNTAX_LOWER
	res.Metadata.Stage = StageSyntaxLower
	code, diagnostics, err := p.compiler.Compile(ctx, req.Path, src, res.Metadata.HasMarkup)
	if warns := errors.ParseCompilerOutput(diagnostics, req.File); len(warns) > 0 {
		for _, w := range warns {
			if w.Severity == errors.SeverityWarning {
				res.Warnings = append(res.Warnings, w)
			}
		}
	}
	if err != nil {
		parsed := errors.ParseCompilerOutput(diagnostics, req.File)
		errs := make([]errors.TranspileError, 0, len(parsed))
		for _, e := range parsed {
			if e.Severity >= errors.SeverityError {
				errs = append(errs, e)
			}
		}
		if len(errs) == 0 {
			errs = append(errs, errors.TranspileError{
				File:     req.Path,
				Message:  err.Error(),
				Severity: errors.SeverityError,
			})
		}
		return p.fail(req, res, started, errs...)
	}
	if res.Metadata.HasMarkup {
		code = append([]byte(runtimePreamble), code...)
	}

	// POSTPROCESS
	res.Metadata.Stage = StagePostprocess
	if req.Mode == ModeProduction {
		code = postprocessProduction(code)
	}

	res.Code = code
	res.Metadata.Exports = extractExports(code)
	res.Metadata.Stage = StageDone
	res.Metadata.ProcessingTime = time.Since(started)
	p.logger.Debug(ctx, "transpiled",
		"path", req.Path,
		"markup", res.Metadata.HasMarkup,
		"imports", len(res.Metadata.Imports),
		"duration", res.Metadata.ProcessingTime,
	)
	return res
}

func (p *Pipeline) fail(req Request, res Result, started time.Time, errs ...errors.TranspileError) Result {
	for _, e := range errs {
		p.collector.Add(e)
	}
	res.Errors = append(res.Errors, errs...)
	res.Code = errors.FallbackModule(req.Path, errs)
	res.Metadata.Stage = StageError
	res.Metadata.ProcessingTime = time.Since(started)
	p.logger.Warn(context.Background(), "transpile failed",
		"path", req.Path,
		"errors", len(errs),
	)
	return res
}

// markupConfidence combines the detector verdict with the file-extension
// signal. Either alone is enough: markup extensions always compile with
// the markup loader, and detected markup in a .ts file still gets the
// transform.
func markupConfidence(projectPath string, src []byte) bool {
	if markupExtensions[path.Ext(projectPath)] {
		return true
	}
	return lexer.ContainsMarkup(src)
}

// rewriteImports splices resolved specifiers into src, removing dropped
// stylesheet statements outright. Everything between import statements
// is preserved byte for byte.
func (p *Pipeline) rewriteImports(projectPath string, src []byte) ([]byte, []string) {
	imports := lexer.ExtractImports(src)
	if len(imports) == 0 {
		return src, nil
	}

	var out bytes.Buffer
	out.Grow(len(src) + 64)
	specifiers := make([]string, 0, len(imports))
	last := 0
	for _, imp := range imports {
		r := resolve.Rewrite(imp.Specifier, projectPath)
		if r.Dropped {
			p.logger.Debug(context.Background(), "dropping stylesheet import",
				"file", projectPath, "specifier", imp.Specifier)
			out.Write(src[last:imp.StmtStart])
			last = imp.StmtEnd
			if last < len(src) && src[last] == '\n' {
				last++
			}
			continue
		}
		specifiers = append(specifiers, r.Resolved)
		out.Write(src[last:imp.Start])
		out.WriteString(r.Resolved)
		last = imp.End
	}
	out.Write(src[last:])
	return out.Bytes(), specifiers
}

// postprocessProduction strips console.debug calls and collapses runs of
// blank lines. Development output is returned byte-identical upstream.
func postprocessProduction(code []byte) []byte {
	lines := bytes.Split(code, []byte("\n"))
	out := make([][]byte, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := bytes.TrimSpace(line)
		if bytes.HasPrefix(trimmed, []byte("console.debug(")) {
			continue
		}
		if len(trimmed) == 0 {
			if blank {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return bytes.Join(out, []byte("\n"))
}

// extractExports records exported names from lowered output for the
// stats endpoint. Best effort; default exports report as "default".
func extractExports(code []byte) []string {
	var exports []string
	t := &lexer.Tracker{}
	t.Scan(code, func(i int) int {
		if code[i] != 'e' || !wordAt(code, i, "export") {
			return i
		}
		j := i + len("export")
		for j < len(code) && (code[j] == ' ' || code[j] == '\t') {
			j++
		}
		rest := code[j:]
		switch {
		case bytes.HasPrefix(rest, []byte("default")):
			exports = append(exports, "default")
		case bytes.HasPrefix(rest, []byte("function")), bytes.HasPrefix(rest, []byte("class")),
			bytes.HasPrefix(rest, []byte("const")), bytes.HasPrefix(rest, []byte("let")),
			bytes.HasPrefix(rest, []byte("var")), bytes.HasPrefix(rest, []byte("async")):
			if name := exportedName(rest); name != "" {
				exports = append(exports, name)
			}
		}
		return j
	})
	return exports
}

func exportedName(rest []byte) string {
	fields := strings.Fields(string(rest))
	for i := 0; i < len(fields)-1; i++ {
		switch fields[i] {
		case "function", "class", "const", "let", "var":
			name := fields[i+1]
			name = strings.TrimFunc(name, func(r rune) bool {
				return !(r == '_' || r == '$' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
			})
			if idx := strings.IndexAny(name, "(=:<"); idx > 0 {
				name = name[:idx]
			}
			return name
		}
	}
	return ""
}

func wordAt(src []byte, i int, word string) bool {
	if i+len(word) > len(src) || string(src[i:i+len(word)]) != word {
		return false
	}
	if i > 0 && isIdent(src[i-1]) {
		return false
	}
	if i+len(word) < len(src) && isIdent(src[i+len(word)]) {
		return false
	}
	return true
}

func isIdent(b byte) bool {
	return b == '_' || b == '$' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
