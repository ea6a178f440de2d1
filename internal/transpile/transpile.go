// Package transpile turns authored component sources into browser-ready
// ES modules. A staged pipeline strips server directives, detects
// embedded markup, rewrites import specifiers onto servable URLs, lowers
// syntax through an external compiler, and post-processes the output per
// build mode. Identical concurrent requests collapse into one compile.
package transpile

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/errors"
)

// Mode selects development or production output.
type Mode int

const (
	ModeDevelopment Mode = iota
	ModeProduction
)

func (m Mode) String() string {
	if m == ModeProduction {
		return "production"
	}
	return "development"
}

// ParseMode maps a config string to a Mode. Unknown values fall back to
// development.
func ParseMode(s string) Mode {
	if s == "production" || s == "prod" {
		return ModeProduction
	}
	return ModeDevelopment
}

// Stage identifies where in the pipeline a request currently is.
type Stage int

const (
	StageInit Stage = iota
	StageDirectives
	StageMarkupAnalysis
	StageImportRewrite
	StageSyntaxLower
	StagePostprocess
	StageDone
	StageError
)

var stageNames = map[Stage]string{
	StageInit:           "init",
	StageDirectives:     "directives",
	StageMarkupAnalysis: "markup_analysis",
	StageImportRewrite:  "import_rewrite",
	StageSyntaxLower:    "syntax_lower",
	StagePostprocess:    "postprocess",
	StageDone:           "done",
	StageError:          "error",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Request describes one file to transpile.
type Request struct {
	// Path is the project-relative URL path of the source, e.g.
	// "/components/Button.tsx".
	Path string
	// File is the absolute filesystem path backing Path.
	File string
	// Source is the raw file contents.
	Source []byte
	// Token is the freshness token for Source, used as the dedup and
	// cache validity key.
	Token cache.Token
	// Mode selects dev or prod output rules.
	Mode Mode
}

// Key returns the singleflight key for the request: same path and same
// token collapse to one compile regardless of caller.
func (r Request) Key() string {
	return fmt.Sprintf("%s|%s|%s", r.Path, r.Token, r.Mode)
}

// Hash returns a short content hash of the request inputs.
func (r Request) Hash() string {
	h := xxhash.New()
	h.WriteString(r.Path)
	h.WriteString(string(r.Token))
	h.Write(r.Source)
	return fmt.Sprintf("%016x", h.Sum64())
}

// Metadata carries per-file facts gathered during the pipeline.
type Metadata struct {
	HasMarkup      bool
	HasDirectives  bool
	Directives     []string
	Imports        []string
	Exports        []string
	ProcessingTime time.Duration
	Stage          Stage
	CacheHit       bool
}

// Result is a finished transpilation. Errors being non-empty means Code
// holds a fallback module rather than compiled output.
type Result struct {
	Path     string
	Code     []byte
	Errors   []errors.TranspileError
	Warnings []errors.TranspileError
	Metadata Metadata
}

// Failed reports whether the result carries fallback output.
func (r Result) Failed() bool {
	return len(r.Errors) > 0
}
