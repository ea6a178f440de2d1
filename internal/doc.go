// Package internal contains the core implementation packages for axis.
//
// This package follows Go's internal package convention, making these
// packages unavailable for import by external modules while providing
// all the core functionality for the axis CLI tool.
//
// # Package Organization
//
// The internal packages are organized by functional domain:
//
//   - cache: token-validated result store with bounded eviction
//   - config: configuration management with validation
//   - errors: error taxonomy, compiler diagnostics, fallback modules
//   - graph: project dependency graph built per discovery pass
//   - lexer: region-tracking scanner, markup detection, import extraction
//   - logging: structured logging on slog
//   - resolve: specifier classification and path rewriting
//   - server: HTTP dispatch table, handlers, and application shell
//   - transpile: staged per-file transpilation pipeline
//   - watcher: file system monitoring with debouncing
//   - websocket: live-reload broadcast hub
package internal
