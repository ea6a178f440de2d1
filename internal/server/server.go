// Package server is the Axis dev server: it dispatches browser requests
// through an ordered routing table, transpiles component sources on
// demand, and pushes live-reload notifications when watched files
// change.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/axisframe/axis/internal/cache"
	"github.com/axisframe/axis/internal/config"
	"github.com/axisframe/axis/internal/errors"
	"github.com/axisframe/axis/internal/graph"
	"github.com/axisframe/axis/internal/logging"
	"github.com/axisframe/axis/internal/resolve"
	"github.com/axisframe/axis/internal/transpile"
	"github.com/axisframe/axis/internal/watcher"
	"github.com/axisframe/axis/internal/websocket"
)

// portAttempts bounds startup port probing. Exhausting every candidate
// is the only fatal startup condition.
const portAttempts = 10

// Server wires the pipeline, cache, graph, watcher, and broadcaster
// behind one HTTP listener. Construct with New; zero value is not
// usable.
type Server struct {
	config      *config.Config
	logger      logging.Logger
	pipeline    *transpile.Pipeline
	store       *cache.Store[transpile.Result]
	graph       *graph.Graph
	broadcaster *websocket.Broadcaster
	watcher     *watcher.FileWatcher
	collector   *errors.Collector
	mode        transpile.Mode
	root        string

	httpServer  *http.Server
	serverMutex sync.Mutex
	started     time.Time
}

// New builds a server from configuration. The dependency graph is
// populated on Start, not here.
func New(cfg *config.Config, logger logging.Logger) (*Server, error) {
	root, err := filepath.Abs(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	mode := transpile.ParseMode(cfg.Transpile.Mode)
	collector := errors.NewCollector()
	store := cache.New[transpile.Result](cfg.Transpile.CacheEntries)
	pipeline := transpile.NewPipeline(
		transpile.NewEsbuildCompiler(cfg.Transpile.Compiler),
		store,
		collector,
		logger,
		mode,
	)

	fw, err := watcher.NewFileWatcher(root, time.Duration(cfg.Development.DebounceMs)*time.Millisecond, logger)
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Server{
		config:      cfg,
		logger:      logger.WithComponent("server"),
		pipeline:    pipeline,
		store:       store,
		graph:       graph.NewGraph(),
		broadcaster: websocket.NewBroadcaster(logger),
		watcher:     fw,
		collector:   collector,
		mode:        mode,
		root:        root,
	}, nil
}

// Start runs the initial discovery pass, wires the watcher, and serves
// until the context is cancelled or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()

	g, err := graph.Discover(ctx, s.root, s.config.Project.Buckets)
	if err != nil {
		return fmt.Errorf("initial discovery: %w", err)
	}
	s.graph = g
	s.logger.Info(ctx, "project discovered",
		"files", g.Len(),
		"stylesheets", len(g.Stylesheets()),
		"packages", len(g.Packages()),
	)

	if s.config.Development.HotReload {
		s.setupFileWatcher(ctx)
	}

	listener, port, err := s.acquirePort()
	if err != nil {
		return err
	}

	handler := s.withMiddleware(s.routes())
	s.serverMutex.Lock()
	s.httpServer = &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.serverMutex.Unlock()

	url := fmt.Sprintf("http://%s:%d", s.config.Server.Host, port)
	s.logger.Info(ctx, "dev server listening", "url", url, "mode", s.mode.String())
	if s.config.Server.Open {
		go s.openBrowser(url)
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Shutdown(shutdownCtx)
	}()

	if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// acquirePort probes sequential candidates starting at the configured
// port. First free port wins; exhausting the ceiling is fatal.
func (s *Server) acquirePort() (net.Listener, int, error) {
	base := s.config.Server.Port
	for attempt := 0; attempt < portAttempts; attempt++ {
		port := base + attempt
		addr := fmt.Sprintf("%s:%d", s.config.Server.Host, port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			if attempt > 0 {
				s.logger.Warn(context.Background(), "configured port busy, moved",
					"configured", base, "port", port)
			}
			return listener, port, nil
		}
	}
	return nil, 0, fmt.Errorf("no free port in range %d-%d", base, base+portAttempts-1)
}

func (s *Server) setupFileWatcher(ctx context.Context) {
	s.watcher.AddFilter(watcher.ProjectFilter)
	s.watcher.AddFilter(watcher.NoTestFilter)
	s.watcher.AddFilter(watcher.NoNodeModulesFilter)
	s.watcher.AddFilter(watcher.NoGitFilter)
	s.watcher.AddHandler(s.handleFileChange)

	for _, bucket := range s.config.Project.Buckets {
		dir := filepath.Join(s.root, bucket)
		if err := s.watcher.AddRecursive(dir); err != nil {
			s.logger.Warn(ctx, "cannot watch bucket", "bucket", bucket, "error", err)
		}
	}

	if err := s.watcher.Start(ctx); err != nil {
		s.logger.Warn(ctx, "file watcher failed to start", "error", err)
	}
}

// handleFileChange invalidates caches for every changed file, updates
// the dependency graph, and only then notifies clients. Invalidation
// completing before any broadcast means a reloading tab can never fetch
// a stale module.
func (s *Server) handleFileChange(events []watcher.ChangeEvent) error {
	for _, event := range events {
		projectPath := s.projectPath(event.Path)
		s.logger.Debug(context.Background(), "file changed",
			"path", projectPath, "type", event.Type.String())

		// Transpile results are cached under the served URL, which
		// downgrades source suffixes to .js, and compiler errors are
		// recorded under the absolute file path.
		s.pipeline.Invalidate(resolve.InferExtension(projectPath))
		s.pipeline.Invalidate(projectPath)
		s.collector.ClearFile(event.Path)

		switch event.Type {
		case watcher.EventTypeDeleted, watcher.EventTypeRenamed:
			s.graph.RemoveFile(projectPath)
		default:
			if data, err := readSource(event.Path); err == nil {
				s.graph.AddFile(projectPath, data)
			}
		}
	}

	for _, event := range events {
		s.broadcaster.NotifyReload(s.projectPath(event.Path))
	}
	return nil
}

// projectPath converts an absolute filesystem path to a rooted project
// URL path.
func (s *Server) projectPath(abs string) string {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return "/" + filepath.ToSlash(rel)
}

func (s *Server) openBrowser(url string) {
	time.Sleep(100 * time.Millisecond)

	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return
	}

	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}
	if err != nil {
		s.logger.Warn(context.Background(), "cannot open browser", "error", err)
	}
}

// Shutdown stops the watcher, closes reload channels, and drains the
// HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.watcher.Stop(); err != nil {
		s.logger.Warn(ctx, "watcher stop failed", "error", err)
	}
	s.broadcaster.Shutdown(ctx)

	s.serverMutex.Lock()
	srv := s.httpServer
	s.serverMutex.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
