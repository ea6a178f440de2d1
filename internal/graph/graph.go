// Package graph builds the project dependency graph: one discovery pass
// walks the source buckets, extracts imports from every source file, and
// records resolved script imports, side-loaded stylesheets, and external
// packages. The graph is rebuilt wholesale per pass, never persisted.
package graph

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/axisframe/axis/internal/lexer"
	"github.com/axisframe/axis/internal/resolve"
)

// Graph is the result of one discovery pass.
type Graph struct {
	mutex    sync.RWMutex
	imports  map[string][]resolve.Resolution
	cssFiles map[string]struct{}
	packages map[string]struct{}
	files    map[string]struct{}
}

// sourceExtensions are the authored file types included in discovery.
var sourceExtensions = map[string]bool{
	".ts": true, ".tsx": true, ".js": true, ".jsx": true,
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		imports:  make(map[string][]resolve.Resolution),
		cssFiles: make(map[string]struct{}),
		packages: make(map[string]struct{}),
		files:    make(map[string]struct{}),
	}
}

// Discover walks root's source buckets and builds a fresh graph. Files
// that fail to read are skipped; discovery is best-effort and an
// unreadable file never fails the pass.
func Discover(ctx context.Context, root string, buckets []string) (*Graph, error) {
	g := NewGraph()

	var paths []string
	for _, bucket := range buckets {
		dir := filepath.Join(root, bucket)
		filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
			if err != nil || info.IsDir() {
				return nil
			}
			if sourceExtensions[filepath.Ext(path)] {
				paths = append(paths, path)
			}
			return nil
		})
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for _, path := range paths {
		path := path
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				rel = path
			}
			g.AddFile("/"+filepath.ToSlash(rel), data)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return g, nil
}

// AddFile records a file and its resolved imports.
func (g *Graph) AddFile(projectPath string, src []byte) {
	resolutions := make([]resolve.Resolution, 0, 4)
	for _, imp := range lexer.ExtractImports(src) {
		resolutions = append(resolutions, resolve.Rewrite(imp.Specifier, projectPath))
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	g.files[projectPath] = struct{}{}
	g.imports[projectPath] = resolutions
	for _, res := range resolutions {
		if res.Asset == resolve.AssetCSS {
			g.cssFiles[res.Resolved] = struct{}{}
		}
		if res.Package != "" && !res.External {
			g.packages[res.Package] = struct{}{}
		}
	}
}

// RemoveFile drops a file and its contributions. Aggregate css/package
// sets are recomputed from the remaining imports.
func (g *Graph) RemoveFile(projectPath string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	delete(g.files, projectPath)
	delete(g.imports, projectPath)

	g.cssFiles = make(map[string]struct{})
	g.packages = make(map[string]struct{})
	for _, resolutions := range g.imports {
		for _, res := range resolutions {
			if res.Asset == resolve.AssetCSS {
				g.cssFiles[res.Resolved] = struct{}{}
			}
			if res.Package != "" && !res.External {
				g.packages[res.Package] = struct{}{}
			}
		}
	}
}

// Imports returns the resolutions recorded for a file.
func (g *Graph) Imports(projectPath string) []resolve.Resolution {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	out := make([]resolve.Resolution, len(g.imports[projectPath]))
	copy(out, g.imports[projectPath])
	return out
}

// Stylesheets returns every side-loaded stylesheet URL, sorted for
// deterministic shell injection.
func (g *Graph) Stylesheets() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	out := make([]string, 0, len(g.cssFiles))
	for css := range g.cssFiles {
		out = append(out, css)
	}
	sort.Strings(out)
	return out
}

// Packages returns every external package referenced by the project.
func (g *Graph) Packages() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	out := make([]string, 0, len(g.packages))
	for pkg := range g.packages {
		out = append(out, pkg)
	}
	sort.Strings(out)
	return out
}

// Files returns every discovered source file path.
func (g *Graph) Files() []string {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	out := make([]string, 0, len(g.files))
	for f := range g.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of files in the graph.
func (g *Graph) Len() int {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return len(g.files)
}

// IsDocumentationPath reports whether a project path sits under a docs
// segment; such files are exempt from directive validation.
func IsDocumentationPath(projectPath string) bool {
	for _, seg := range strings.Split(strings.Trim(projectPath, "/"), "/") {
		if seg == "docs" || seg == "documentation" {
			return true
		}
	}
	return false
}
