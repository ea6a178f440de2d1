package server

import (
	"net/http"
	"path"
	"strings"

	"github.com/axisframe/axis/internal/resolve"
)

// route is one entry of the dispatch table. Predicates are evaluated in
// declaration order and the first match wins, so priority is explicit
// and no two handlers can claim the same request.
type route struct {
	name    string
	match   func(r *http.Request) bool
	handler http.HandlerFunc
}

// routes builds the ordered dispatch table. Order matters: upgrades
// before control endpoints, framework files before packages, stylesheets
// before component sources, page routes before the static fallback.
func (s *Server) routes() http.Handler {
	table := []route{
		{
			name: "websocket",
			match: func(r *http.Request) bool {
				return r.URL.Path == "/ws" &&
					strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
			},
			handler: s.broadcaster.HandleWebSocket,
		},
		{
			name:    "reload-control",
			match:   pathIs("/__axis/reload"),
			handler: s.handleReloadControl,
		},
		{
			name:    "health",
			match:   pathIs("/healthz"),
			handler: s.handleHealth,
		},
		{
			name:    "stats",
			match:   pathIs("/__axis/stats"),
			handler: s.handleStats,
		},
		{
			name:    "framework-runtime",
			match:   pathHasPrefix("/axis/"),
			handler: s.handleRuntime,
		},
		{
			name:    "dependency-polyfill",
			match:   pathHasPrefix("/__deps/"),
			handler: s.handlePolyfill,
		},
		{
			name:    "scoped-package",
			match:   pathHasPrefix("/node_modules/"),
			handler: s.handlePackage,
		},
		{
			name: "stylesheet",
			match: func(r *http.Request) bool {
				return resolve.IsStylesheetSpecifier(r.URL.Path)
			},
			handler: s.handleStylesheet,
		},
		{
			name:    "bundle",
			match:   pathIs("/bundle.js"),
			handler: s.handleBundle,
		},
		{
			name:    "component-source",
			match:   s.isComponentSource,
			handler: s.handleComponent,
		},
		{
			name: "page-route",
			match: func(r *http.Request) bool {
				return path.Ext(r.URL.Path) == ""
			},
			handler: s.handlePage,
		},
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, rt := range table {
			if rt.match(r) {
				rt.handler(w, r)
				return
			}
		}
		s.handleStatic(w, r)
	})
}

// isComponentSource matches script requests under a served bucket.
func (s *Server) isComponentSource(r *http.Request) bool {
	p := r.URL.Path
	ext := path.Ext(p)
	if ext != ".js" && ext != ".ts" && ext != ".tsx" && ext != ".jsx" && ext != ".mjs" {
		return false
	}
	for _, bucket := range s.config.Project.Buckets {
		if strings.HasPrefix(p, "/"+bucket+"/") {
			return true
		}
	}
	return false
}

func pathIs(p string) func(*http.Request) bool {
	return func(r *http.Request) bool { return r.URL.Path == p }
}

func pathHasPrefix(prefix string) func(*http.Request) bool {
	return func(r *http.Request) bool { return strings.HasPrefix(r.URL.Path, prefix) }
}
