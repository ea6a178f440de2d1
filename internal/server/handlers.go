package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/errors"
	"github.com/axisframe/axis/internal/resolve"
	"github.com/axisframe/axis/internal/transpile"
)

const javascriptMIME = "application/javascript; charset=utf-8"

// sourceVariants are the filesystem extensions probed to back a .js
// request URL, in preference order.
var sourceVariants = []string{".tsx", ".ts", ".jsx", ".js", ".mjs"}

func (s *Server) handleReloadControl(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	s.broadcaster.NotifyReload("")
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "reload sent",
		"clients": s.broadcaster.ClientCount(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.started).String(),
		"mode":   s.mode.String(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	hits, misses, evictions, invalidated := s.store.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"cache": map[string]interface{}{
			"entries":     s.store.Len(),
			"hits":        hits,
			"misses":      misses,
			"evictions":   evictions,
			"invalidated": invalidated,
		},
		"graph": map[string]interface{}{
			"files":       s.graph.Len(),
			"stylesheets": s.graph.Stylesheets(),
			"packages":    s.graph.Packages(),
		},
		"reload_clients": s.broadcaster.ClientCount(),
		"errors":         s.collector.Errors(),
	})
}

// handleRuntime serves the embedded framework runtime modules under
// /axis/.
func (s *Server) handleRuntime(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/axis/")
	code, ok := runtimeModule(name)
	if !ok {
		http.NotFound(w, r)
		return
	}
	s.setScriptHeaders(w)
	w.Write(code)
}

// handlePolyfill serves browser shims for node builtins under /__deps/.
// Unknown names get an empty module so an accidental builtin import
// degrades to a runtime warning instead of a network error.
func (s *Server) handlePolyfill(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/__deps/"), ".js")
	if name == "" || strings.Contains(name, "..") {
		http.NotFound(w, r)
		return
	}
	s.setScriptHeaders(w)
	fmt.Fprintf(w, "// shim for %q: not available in the browser\n", name)
	fmt.Fprintf(w, "console.warn(%q);\n", fmt.Sprintf("axis: %s is a server-only module, imports resolve to an empty shim", name))
	fmt.Fprint(w, "export default {};\n")
}

// handlePackage serves installed dependency files under /node_modules/.
// A missing exact path falls back to probing the package's entry
// candidates; ambiguity is logged and the best guess served.
func (s *Server) handlePackage(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}
	abs := filepath.Join(s.root, filepath.FromSlash(rel))
	if data, err := os.ReadFile(abs); err == nil {
		s.writeAsset(w, r.URL.Path, data)
		return
	}

	// Exact file missing: re-probe entry candidates from the package
	// root. Covers packages whose layout differs from the default
	// rewrite guess.
	pkgDir, found := packageDir(rel)
	if !found {
		http.NotFound(w, r)
		return
	}
	for _, candidate := range resolve.EntryCandidates {
		probe := filepath.Join(s.root, filepath.FromSlash(pkgDir), filepath.FromSlash(candidate))
		data, err := os.ReadFile(probe)
		if err != nil {
			continue
		}
		warn := &errors.ResolutionWarning{
			Specifier: r.URL.Path,
			Candidate: candidate,
			File:      pkgDir,
		}
		s.logger.Warn(r.Context(), "ambiguous package entry, serving best guess", "warning", warn.Error())
		s.writeAsset(w, probe, data)
		return
	}
	http.NotFound(w, r)
}

// packageDir extracts "node_modules/<pkg>" (scope-aware) from a request
// path.
func packageDir(rel string) (string, bool) {
	parts := strings.Split(rel, "/")
	if len(parts) < 2 || parts[0] != "node_modules" {
		return "", false
	}
	if strings.HasPrefix(parts[1], "@") {
		if len(parts) < 3 {
			return "", false
		}
		return strings.Join(parts[:3], "/"), true
	}
	return strings.Join(parts[:2], "/"), true
}

// handleStylesheet serves stylesheet files. Preprocessor sources are
// served as-is; the browser-facing build step is out of scope for the
// dev loop.
func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	abs, err := s.fileForURL(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	s.setDevCacheHeaders(w)
	w.Write(data)
}

// handleBundle emits an eager-loading module importing every discovered
// component, so a page can boot the whole app from one script tag.
func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	s.setScriptHeaders(w)
	fmt.Fprint(w, "// axis dev bundle: eagerly loads every discovered module\n")
	for _, file := range s.graph.Files() {
		fmt.Fprintf(w, "import %q;\n", resolve.InferExtension(file))
	}
}

// handleComponent transpiles and serves one component source. Transpile
// failures still answer 200 with a fallback module so one broken file
// never blanks the page.
func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	abs, err := s.fileForURL(r.URL.Path)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	token, err := s.freshnessToken(abs, source)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	result, err := s.pipeline.Transpile(r.Context(), transpile.Request{
		Path:   r.URL.Path,
		File:   abs,
		Source: source,
		Token:  token,
		Mode:   s.mode,
	})
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.setScriptHeaders(w)
	if result.Metadata.CacheHit {
		w.Header().Set("X-Axis-Cache", "hit")
	} else {
		w.Header().Set("X-Axis-Cache", "miss")
	}
	if result.Failed() && !s.config.Development.ErrorOverlay {
		// Overlay disabled: log only, serve an inert module.
		fmt.Fprintf(w, "// transpile failed: %s\nexport default null;\n", r.URL.Path)
		return
	}
	w.Write(result.Code)
}

// handlePage serves the application shell for extension-less routes.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	shell, err := s.renderShell(r.URL.Path)
	if err != nil {
		s.logger.Warn(r.Context(), "shell render failed", "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	s.setDevCacheHeaders(w)
	w.Write(shell)
}

// handleStatic is the fallback: serve the file from the project root if
// it exists, 404 otherwise.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if rel == "" || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}
	for _, dir := range []string{"public", "static", "."} {
		abs := filepath.Join(s.root, dir, filepath.FromSlash(rel))
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			http.ServeFile(w, r, abs)
			return
		}
	}
	http.NotFound(w, r)
}

// fileForURL maps a request path to a backing source file, probing the
// source extension variants when the literal path is absent.
func (s *Server) fileForURL(urlPath string) (string, error) {
	clean := path.Clean(urlPath)
	if strings.Contains(clean, "..") {
		return "", os.ErrNotExist
	}
	base := filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	if info, err := os.Stat(base); err == nil && !info.IsDir() {
		return base, nil
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for _, ext := range sourceVariants {
		candidate := stem + ext
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", os.ErrNotExist
}

// freshnessToken computes the cache validity token per mode: mtime+size
// in development, content hash in production.
func (s *Server) freshnessToken(abs string, source []byte) (cache.Token, error) {
	if s.mode == transpile.ModeProduction {
		return cache.ContentToken(source), nil
	}
	return cache.ModTimeToken(abs)
}

func (s *Server) setScriptHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", javascriptMIME)
	s.setDevCacheHeaders(w)
}

// setDevCacheHeaders disables browser caching in development so edited
// modules are always refetched.
func (s *Server) setDevCacheHeaders(w http.ResponseWriter) {
	if s.mode == transpile.ModeProduction {
		return
	}
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

func (s *Server) writeAsset(w http.ResponseWriter, name string, data []byte) {
	switch path.Ext(name) {
	case ".css":
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
	case ".json":
		w.Header().Set("Content-Type", "application/json")
	default:
		w.Header().Set("Content-Type", javascriptMIME)
	}
	s.setDevCacheHeaders(w)
	w.Write(data)
}

func readSource(path string) ([]byte, error) {
	return os.ReadFile(path)
}
